// Package memory keeps try-on jobs in process memory for running without a
// database.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/tryon/internal/domain"
)

type TryOnJobRepo struct {
	mu   sync.RWMutex
	jobs map[string]domain.TryOnJob
	now  func() time.Time
}

func NewTryOnJobRepo() *TryOnJobRepo {
	return &TryOnJobRepo{jobs: map[string]domain.TryOnJob{}, now: time.Now}
}

func (r *TryOnJobRepo) Create(ctx context.Context, j *domain.TryOnJob) error {
	if j.RequestID == "" {
		return errors.New("job without request id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.RequestID]; ok {
		return errors.New("duplicate request id " + j.RequestID)
	}
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	now := r.now()
	j.CreatedAt, j.UpdatedAt = now, now
	r.jobs[j.RequestID] = clone(*j)
	return nil
}

func (r *TryOnJobRepo) Save(ctx context.Context, j *domain.TryOnJob) error {
	if j.ID == uuid.Nil {
		return errors.New("job without id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	j.UpdatedAt = r.now()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = j.UpdatedAt
	}
	r.jobs[j.RequestID] = clone(*j)
	return nil
}

func (r *TryOnJobRepo) FindByRequestID(ctx context.Context, requestID string) (*domain.TryOnJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[requestID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	j = clone(j)
	return &j, nil
}

func (r *TryOnJobRepo) ListPending(ctx context.Context) ([]domain.TryOnJob, error) {
	r.mu.RLock()
	var list []domain.TryOnJob
	for _, j := range r.jobs {
		if j.Status == domain.JobStatusProcessing || (!j.Notified && j.CallbackURL != "") {
			list = append(list, clone(j))
		}
	}
	r.mu.RUnlock()
	sort.Slice(list, func(a, b int) bool { return list[a].CreatedAt.Before(list[b].CreatedAt) })
	return list, nil
}

// clone copies the reference fields so callers never share state with the
// stored job.
func clone(j domain.TryOnJob) domain.TryOnJob {
	if j.ItemIDs != nil {
		j.ItemIDs = append([]string(nil), j.ItemIDs...)
	}
	if j.BodyMeasurements != nil {
		m := *j.BodyMeasurements
		j.BodyMeasurements = &m
	}
	if j.SizeRecommendations != nil {
		recs := make(map[string]domain.SizeRecommendation, len(j.SizeRecommendations))
		for k, v := range j.SizeRecommendations {
			recs[k] = v
		}
		j.SizeRecommendations = recs
	}
	return j
}
