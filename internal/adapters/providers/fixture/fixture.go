// Package fixture provides stand-in providers for running without provider
// credentials. Every call waits for a configurable delay and returns canned
// data.
package fixture

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/phenrril/tryon/internal/domain"
)

const (
	MaleAvatarURL   = "/models/avatars/standard-male-fullbody.glb"
	FemaleAvatarURL = "/models/avatars/standard-female-fullbody.glb"
)

// Measurements and Recommendation are what the fixture size estimator always
// answers with.
var (
	Measurements   = domain.BodyMeasurements{Height: 175, Chest: 95, Waist: 82, Hips: 98, Shoulders: 45, Inseam: 82}
	Recommendation = domain.SizeRecommendation{UpperSize: "M", LowerSize: "L", ShoeSize: "", Fit: "regular", Confidence: 0.85}
)

type base struct {
	Delay time.Duration
	Now   func() time.Time
}

func (b base) wait(ctx context.Context) error {
	if b.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(b.Delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b base) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

type Avatars struct{ base }

func NewAvatars(delay time.Duration) *Avatars { return &Avatars{base{Delay: delay}} }

// Generate picks the standard body for the requested gender. The id is
// avatar_<user>_<unix ms>; an empty user becomes user_<unix ms>.
func (a *Avatars) Generate(ctx context.Context, req domain.AvatarRequest) (*domain.Avatar, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	ms := a.now().UnixMilli()
	user := req.UserID
	if user == "" {
		user = fmt.Sprintf("user_%d", ms)
	}
	u := MaleAvatarURL
	if strings.EqualFold(req.Gender, "female") {
		u = FemaleAvatarURL
	}
	return &domain.Avatar{ID: fmt.Sprintf("avatar_%s_%d", user, ms), URL: u}, nil
}

type Fitter struct{ base }

func NewFitter(delay time.Duration) *Fitter { return &Fitter{base{Delay: delay}} }

// ApplyClothing returns the avatar URL tagged with the outfit ids.
func (f *Fitter) ApplyClothing(ctx context.Context, avatarURL string, items []domain.ClothingItem) (string, error) {
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = string(it.ID)
	}
	sep := "?"
	if strings.Contains(avatarURL, "?") {
		sep = "&"
	}
	return avatarURL + sep + "outfit=" + url.QueryEscape(strings.Join(ids, ",")), nil
}

type Sizer struct{ base }

func NewSizer(delay time.Duration) *Sizer { return &Sizer{base{Delay: delay}} }

func (s *Sizer) EstimateMeasurements(ctx context.Context, photo domain.Photo) (*domain.BodyMeasurements, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	m := Measurements
	return &m, nil
}

func (s *Sizer) Recommend(ctx context.Context, m domain.BodyMeasurements, productID string) (*domain.SizeRecommendation, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	r := Recommendation
	return &r, nil
}

func (s *Sizer) RecommendBatch(ctx context.Context, m domain.BodyMeasurements, productIDs []string) (map[string]domain.SizeRecommendation, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	out := make(map[string]domain.SizeRecommendation, len(productIDs))
	for _, id := range productIDs {
		out[id] = Recommendation
	}
	return out, nil
}
