package scene

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/phenrril/tryon/internal/domain"
)

func TestSelectClip(t *testing.T) {
	cases := []struct {
		mode      Mode
		available []string
		want      string
	}{
		{ModeIdle, []string{"walk", "idle", "Idle"}, "Idle"},
		{ModeIdle, []string{"walk", "breathing"}, "breathing"},
		{ModeWalking, []string{"Armature|Walk_Cycle", "Idle"}, "Armature|Walk_Cycle"},
		{ModeTurning, []string{"Dance", "Wave"}, "Dance"},
		{ModeTurning, []string{"spin", "turn_90", "rotate"}, "turn_90"},
		{ModeWalking, nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SelectClip(tc.mode, tc.available), "%s %v", tc.mode, tc.available)
	}
}

func TestSelectClip_AlwaysFromAvailable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mode := rapid.SampledFrom([]Mode{ModeIdle, ModeWalking, ModeTurning}).Draw(rt, "mode")
		avail := rapid.SliceOf(rapid.StringMatching(`[A-Za-z_]{1,10}`)).Draw(rt, "avail")
		got := SelectClip(mode, avail)
		if len(avail) == 0 {
			if got != "" {
				rt.Fatalf("got %q from nothing", got)
			}
			return
		}
		for _, a := range avail {
			if a == got {
				return
			}
		}
		rt.Fatalf("%q not among %v", got, avail)
	})
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("Walking")
	assert.True(t, ok)
	assert.Equal(t, ModeWalking, m)
	m, ok = ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeIdle, m)
	_, ok = ParseMode("dance")
	assert.False(t, ok)
}

func TestParseGLB(t *testing.T) {
	b := BuildGLB(map[string]any{
		"asset":      map[string]any{"version": "2.0"},
		"animations": []any{map[string]any{"name": "Idle"}, map[string]any{"name": "Walking"}},
	})
	m, err := ParseGLB(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), m.Version)
	assert.Equal(t, []string{"Idle", "Walking"}, m.Animations)

	_, err = ParseGLB([]byte("<html>not found</html>"))
	assert.ErrorIs(t, err, ErrNotGLB)
	_, err = ParseGLB(b[:len(b)-4])
	assert.ErrorIs(t, err, ErrNotGLB)
}

type memAssets struct {
	mu     sync.Mutex
	files  map[string][]byte
	opened []string
}

func (m *memAssets) OpenAsset(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = append(m.opened, ref)
	b, ok := m.files[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func TestCompose(t *testing.T) {
	garment := BuildGLB(map[string]any{"asset": map[string]any{"version": "2.0"}})
	assets := &memAssets{files: map[string][]byte{
		"/avatar.glb": BuildGLB(map[string]any{"animations": []any{map[string]any{"name": "Turning"}, map[string]any{"name": "Idle"}}}),
		"/shirt.glb":  garment,
		"/jeans.glb":  garment,
		"/broken.glb": []byte("not a model"),
		"/unused.glb": garment,
	}}
	items := []domain.ClothingItem{
		{ID: "upper-1", Category: domain.CategoryUpper, ModelURL: "/shirt.glb"},
		{ID: "x", Category: domain.CategoryShoes, ModelURL: "/broken.glb"},
		{ID: "lower-1", Category: domain.CategoryLower, ModelURL: "/jeans.glb"},
		{ID: "nomodel", Category: domain.CategoryOuter},
		{ID: "gone", Category: domain.CategoryFull, ModelURL: "/missing.glb"},
	}

	m, err := NewComposer(assets, Options{}).Compose(context.Background(), "/avatar.glb", items, ModeTurning)
	require.NoError(t, err)

	assert.Equal(t, "Turning", m.Animation)
	assert.True(t, m.AutoRotate)
	assert.Equal(t, Vec3{0, 1.5, 3}, m.Camera.Position)
	require.Len(t, m.Lights, 3)
	assert.Equal(t, "ambient", m.Lights[0].Type)

	require.Len(t, m.Clothing, 2)
	assert.Equal(t, "clothing_upper-1", m.Clothing[0].Name)
	assert.Equal(t, "clothing_lower-1", m.Clothing[1].Name)
	for _, n := range m.Clothing {
		assert.Equal(t, "avatar", n.Parent)
	}

	skipped := append([]domain.ItemID(nil), m.Skipped...)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i] < skipped[j] })
	assert.Equal(t, []domain.ItemID{"gone", "nomodel", "x"}, skipped)
	assert.NotContains(t, assets.opened, "/unused.glb")
}

func TestCompose_AvatarUnavailable(t *testing.T) {
	m, err := NewComposer(&memAssets{files: map[string][]byte{}}, Options{}).Compose(context.Background(), "https://cdn/a.glb", nil, ModeIdle)
	require.NoError(t, err)
	assert.Empty(t, m.Animation)
	assert.False(t, m.AutoRotate)
	assert.Empty(t, m.Clothing)

	_, err = NewComposer(&memAssets{}, Options{}).Compose(context.Background(), "", nil, ModeIdle)
	assert.Error(t, err)
}

func TestGuard(t *testing.T) {
	g := NewGuard()
	first := g.Begin("s1")
	second := g.Begin("s1")
	other := g.Begin("s2")
	assert.False(t, g.Current("s1", first))
	assert.True(t, g.Current("s1", second))
	assert.True(t, g.Current("s2", other))
	g.Forget("s1")
	assert.False(t, g.Current("s1", second))
	assert.Equal(t, 1, g.Len())
}

func TestGuard_SweepsIdleKeys(t *testing.T) {
	g := NewGuardWithIdle(time.Minute)
	now := time.Unix(1000, 0)
	g.now = func() time.Time { return now }
	g.lastSweep = now

	for i := 0; i < 50; i++ {
		g.Begin(fmt.Sprintf("ip:10.0.0.%d", i))
	}
	assert.Equal(t, 50, g.Len())

	now = now.Add(30 * time.Second)
	g.Begin("ip:10.0.0.1")

	now = now.Add(50 * time.Second)
	gen := g.Begin("sess")
	assert.Equal(t, 2, g.Len(), "only keys seen within the idle window remain")
	assert.True(t, g.Current("sess", gen))
	assert.True(t, g.Current("ip:10.0.0.1", 2))
}
