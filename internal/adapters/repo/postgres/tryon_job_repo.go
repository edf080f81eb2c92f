package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/tryon/internal/domain"
)

type TryOnJobRepo struct{ db *gorm.DB }

func NewTryOnJobRepo(db *gorm.DB) *TryOnJobRepo { return &TryOnJobRepo{db: db} }

func (r *TryOnJobRepo) Create(ctx context.Context, j *domain.TryOnJob) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(j).Error
}

func (r *TryOnJobRepo) Save(ctx context.Context, j *domain.TryOnJob) error {
	if j.ID == uuid.Nil {
		return errors.New("job without id")
	}
	return r.db.WithContext(ctx).Save(j).Error
}

func (r *TryOnJobRepo) FindByRequestID(ctx context.Context, requestID string) (*domain.TryOnJob, error) {
	var j domain.TryOnJob
	if err := r.db.WithContext(ctx).First(&j, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// ListPending returns jobs still marked processing and finished jobs whose
// callback was never sent, oldest first. Used at startup to recover work
// orphaned by a restart.
func (r *TryOnJobRepo) ListPending(ctx context.Context) ([]domain.TryOnJob, error) {
	var list []domain.TryOnJob
	err := r.db.WithContext(ctx).
		Where("status = ? OR (notified = ? AND callback_url <> '')", domain.JobStatusProcessing, false).
		Order("created_at asc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
