package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/tryon/internal/domain"
)

func exercise(t *testing.T, st domain.SessionStore) {
	t.Helper()
	ctx := context.Background()

	_, err := st.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s := &domain.Session{ID: "abc", Generation: 2, Photo: []byte{0xff, 0xd8}, ContentType: "image/jpeg", Width: 10, Height: 20}
	require.NoError(t, st.Save(ctx, s))

	got, err := st.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.Generation)
	assert.Equal(t, []byte{0xff, 0xd8}, got.Photo)
	assert.Equal(t, 20, got.Height)

	up, err := st.Update(ctx, "abc", func(s *domain.Session) error {
		s.Generation++
		s.AvatarURL = "/a.glb"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), up.Generation)
	got, err = st.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Generation)
	assert.Equal(t, "/a.glb", got.AvatarURL)

	boom := errors.New("boom")
	_, err = st.Update(ctx, "abc", func(s *domain.Session) error {
		s.Generation = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, err = st.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got.Generation)

	_, err = st.Update(ctx, "missing", func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, st.Delete(ctx, "abc"))
	_, err = st.Get(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryStore_ConcurrentUpdate(t *testing.T) {
	st := NewMemoryStore(time.Hour)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, &domain.Session{ID: "c"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Update(ctx, "c", func(s *domain.Session) error {
				s.Generation++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	got, err := st.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, uint64(50), got.Generation)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	st := NewMemoryStore(time.Minute)
	now := time.Unix(1000, 0)
	st.now = func() time.Time { return now }
	require.NoError(t, st.Save(context.Background(), &domain.Session{ID: "a"}))

	now = now.Add(2 * time.Minute)
	_, err := st.Get(context.Background(), "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := NewRedisStore(context.Background(), mr.Addr(), "", 0, time.Minute)
	require.NoError(t, err)
	defer st.Close()
	exercise(t, st)

	require.NoError(t, st.Save(context.Background(), &domain.Session{ID: "ttl"}))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"ttl"))
	mr.FastForward(2 * time.Minute)
	_, err = st.Get(context.Background(), "ttl")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisStore_UpdateRetriesOnConflict(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	st, err := NewRedisStore(ctx, mr.Addr(), "", 0, time.Minute)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Save(ctx, &domain.Session{ID: "x", Generation: 1}))

	calls := 0
	up, err := st.Update(ctx, "x", func(s *domain.Session) error {
		calls++
		if calls == 1 {
			// a concurrent writer lands between the read and the write
			require.NoError(t, st.Save(ctx, &domain.Session{ID: "x", Generation: 5}))
		}
		s.Generation++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, uint64(6), up.Generation)
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"x"))

	_, err = st.Update(ctx, "x", func(s *domain.Session) error {
		return st.Save(ctx, &domain.Session{ID: "x", Generation: s.Generation + 1})
	})
	assert.ErrorIs(t, err, redis.TxFailedErr)
}

func TestRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := NewRedisStore(context.Background(), addr, "", 0, time.Minute)
	assert.Error(t, err)
}
