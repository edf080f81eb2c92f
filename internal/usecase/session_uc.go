package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/tryon/internal/domain"
	"github.com/phenrril/tryon/internal/pose"
)

type SessionUC struct {
	Store domain.SessionStore
	Now   func() time.Time
}

// Upload stores photo as the session's current image and bumps its
// generation. A missing or expired id starts a new session.
func (uc *SessionUC) Upload(ctx context.Context, id string, photo domain.Photo) (*domain.Session, error) {
	if len(photo.Data) == 0 {
		return nil, domain.Invalid("No image file provided")
	}
	info, err := pose.InspectBytes(photo.Data)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	replace := func(s *domain.Session) error {
		s.Generation++
		s.Photo = photo.Data
		s.ContentType = photo.ContentType
		s.Width, s.Height = info.Width, info.Height
		s.AvatarURL, s.AvatarID = "", ""
		s.UpdatedAt = now
		return nil
	}
	if id != "" {
		s, err := uc.Store.Update(ctx, id, replace)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	s := &domain.Session{ID: uuid.NewString(), CreatedAt: now}
	_ = replace(s)
	if err := uc.Store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *SessionUC) Current(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return uc.Store.Get(ctx, id)
}

// AttachAvatar records an avatar generated from the photo of generation gen.
// The result is dropped when the photo has been replaced meanwhile.
func (uc *SessionUC) AttachAvatar(ctx context.Context, id string, gen uint64, av domain.Avatar) error {
	if id == "" {
		return domain.ErrNotFound
	}
	now := uc.now()
	_, err := uc.Store.Update(ctx, id, func(s *domain.Session) error {
		if s.Generation != gen {
			return domain.ErrStaleGeneration
		}
		s.AvatarURL, s.AvatarID = av.URL, av.ID
		s.UpdatedAt = now
		return nil
	})
	return err
}

func (uc *SessionUC) Reset(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return uc.Store.Delete(ctx, id)
}

func (uc *SessionUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}
