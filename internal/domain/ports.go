package domain

import (
	"bytes"
	"context"
	"io"
)

// Photo is an uploaded image handed to a provider.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (p Photo) Reader() io.Reader { return bytes.NewReader(p.Data) }

type AvatarRequest struct {
	Photo  Photo
	Gender string
	UserID string
}

type Avatar struct {
	ID  string `json:"avatarId"`
	URL string `json:"avatarUrl"`
}

type AvatarGenerator interface {
	Generate(ctx context.Context, req AvatarRequest) (*Avatar, error)
}

type ClothingFitter interface {
	ApplyClothing(ctx context.Context, avatarURL string, items []ClothingItem) (string, error)
}

type SizeEstimator interface {
	EstimateMeasurements(ctx context.Context, photo Photo) (*BodyMeasurements, error)
	Recommend(ctx context.Context, m BodyMeasurements, productID string) (*SizeRecommendation, error)
	RecommendBatch(ctx context.Context, m BodyMeasurements, productIDs []string) (map[string]SizeRecommendation, error)
}

type TryOnJobRepo interface {
	Create(ctx context.Context, j *TryOnJob) error
	Save(ctx context.Context, j *TryOnJob) error
	FindByRequestID(ctx context.Context, requestID string) (*TryOnJob, error)
}

type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	// Update applies fn to the stored session and saves the result as one
	// atomic step. A missing session yields ErrNotFound; an error from fn
	// leaves the stored value untouched and is returned as is.
	Update(ctx context.Context, id string, fn func(s *Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}

type CatalogRepo interface {
	List(ctx context.Context, f CatalogFilter) ([]ClothingItem, error)
	FindByID(ctx context.Context, id ItemID) (*ClothingItem, error)
}

type FileStorage interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// AssetResolver opens catalog assets (overlay sprites, models) by reference.
type AssetResolver interface {
	OpenAsset(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Notifier delivers the final try-on result to the caller's callback URL.
type Notifier interface {
	Notify(ctx context.Context, callbackURL string, res TryOnResult) error
}
