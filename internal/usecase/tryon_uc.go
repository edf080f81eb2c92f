package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/tryon/internal/domain"
)

const (
	msgProcessing = "Processing try-on request"
	msgCompleted  = "Try-on completed successfully"
	msgFailed     = "Error processing try-on request"
)

// ImageFetcher loads the user photo named by a try-on request.
type ImageFetcher interface {
	Fetch(ctx context.Context, raw string) (domain.Photo, error)
}

// PipelineObserver is told about every pipeline run. Optional.
type PipelineObserver interface {
	JobStarted()
	JobFinished(status domain.JobStatus, elapsed time.Duration)
}

type pendingLister interface {
	ListPending(ctx context.Context) ([]domain.TryOnJob, error)
}

// TryOnUC runs the asynchronous integration pipeline. The zero value of the
// unexported state is ready to use; fill the exported dependencies.
type TryOnUC struct {
	Jobs     domain.TryOnJobRepo
	Images   ImageFetcher
	Avatars  domain.AvatarGenerator
	Fitter   domain.ClothingFitter
	Sizing   *SizingUC
	Catalog  *CatalogUC
	Notifier domain.Notifier
	Observer PipelineObserver
	// Timeout bounds one pipeline run; zero means two minutes.
	Timeout time.Duration
	Now     func() time.Time

	wg  sync.WaitGroup
	hub hub
}

// Submit validates req, records a processing job and starts the pipeline in
// the background. It returns before any provider is called. clothingItems
// must be present but may be empty, in which case the bare avatar is the
// clothed result.
func (uc *TryOnUC) Submit(ctx context.Context, req domain.TryOnRequest) (*domain.TryOnResult, error) {
	req.UserImageURL = strings.TrimSpace(req.UserImageURL)
	if req.UserImageURL == "" || req.ClothingItems == nil {
		return nil, domain.Invalid("Missing or invalid required parameters")
	}
	for _, it := range req.ClothingItems {
		if it.ID == "" {
			return nil, domain.Invalid("Missing or invalid required parameters")
		}
	}
	if uc.Catalog != nil {
		req.ClothingItems = uc.Catalog.Complete(ctx, req.ClothingItems)
	}

	id, err := uc.newRequestID()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(req.ClothingItems))
	for i, it := range req.ClothingItems {
		ids[i] = string(it.ID)
	}
	job := &domain.TryOnJob{
		RequestID:    id,
		Status:       domain.JobStatusProcessing,
		Message:      msgProcessing,
		UserImageURL: req.UserImageURL,
		CallbackURL:  req.CallbackURL,
		ItemIDs:      ids,
	}
	if err := uc.Jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		uc.run(job, req)
	}()

	return &domain.TryOnResult{RequestID: id, Status: domain.JobStatusProcessing, Message: msgProcessing}, nil
}

func (uc *TryOnUC) Status(ctx context.Context, requestID string) (*domain.TryOnResult, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, domain.Invalid("Missing or invalid request ID")
	}
	j, err := uc.Jobs.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	res := j.Result()
	return &res, nil
}

// Subscribe streams snapshots of the job. The current state is delivered
// first; the channel is closed after the terminal snapshot or when cancel is
// called.
func (uc *TryOnUC) Subscribe(ctx context.Context, requestID string) (<-chan domain.TryOnResult, func(), error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, nil, domain.Invalid("Missing or invalid request ID")
	}
	return uc.hub.subscribe(requestID, func() (*domain.TryOnJob, error) {
		return uc.Jobs.FindByRequestID(ctx, requestID)
	})
}

// Wait blocks until every started pipeline has finished.
func (uc *TryOnUC) Wait() { uc.wg.Wait() }

// FailOrphaned marks jobs left processing by a previous process as failed and
// sends every callback still owed, including those of jobs that finished
// before the restart. It returns the number of jobs it failed. Repositories
// without ListPending are skipped.
func (uc *TryOnUC) FailOrphaned(ctx context.Context) (int, error) {
	pl, ok := uc.Jobs.(pendingLister)
	if !ok {
		return 0, nil
	}
	jobs, err := pl.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	failed := 0
	for i := range jobs {
		j := &jobs[i]
		if !terminal(j.Status) {
			uc.fail(ctx, j, "interrupted by restart")
			failed++
		}
		uc.notify(ctx, j)
	}
	return failed, nil
}

func (uc *TryOnUC) run(job *domain.TryOnJob, req domain.TryOnRequest) {
	timeout := uc.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := uc.now()
	if uc.Observer != nil {
		uc.Observer.JobStarted()
	}
	l := log.With().Str("request_id", job.RequestID).Logger()

	if err := uc.process(ctx, job, req); err != nil {
		var se *stageError
		reason := "pipeline failed"
		if errors.As(err, &se) {
			reason = se.stage + " failed"
		}
		l.Error().Err(err).Msg("try-on failed")
		uc.fail(ctx, job, reason)
	} else {
		l.Info().Dur("elapsed", uc.now().Sub(start)).Msg("try-on completed")
	}
	uc.notify(ctx, job)
	if uc.Observer != nil {
		uc.Observer.JobFinished(job.Status, uc.now().Sub(start))
	}
}

type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func (uc *TryOnUC) process(ctx context.Context, job *domain.TryOnJob, req domain.TryOnRequest) error {
	photo, err := uc.Images.Fetch(ctx, req.UserImageURL)
	if err != nil {
		return &stageError{"fetch user image", err}
	}
	uc.advance(ctx, job, 20)

	avatar, err := uc.Avatars.Generate(ctx, domain.AvatarRequest{Photo: photo})
	if err != nil {
		return &stageError{"avatar generation", err}
	}
	job.AvatarURL = avatar.URL
	uc.advance(ctx, job, 40)

	if req.IncludeBodyMeasurements || req.IncludeSizeRecommendations {
		m, err := uc.Sizing.Measure(ctx, photo)
		if err != nil {
			return &stageError{"body measurement", err}
		}
		if req.IncludeBodyMeasurements {
			job.BodyMeasurements = m
		}
		if req.IncludeSizeRecommendations {
			recs, err := uc.Sizing.RecommendEach(ctx, *m, job.ItemIDs)
			if err != nil {
				return &stageError{"size recommendation", err}
			}
			job.SizeRecommendations = recs
		}
	}
	uc.advance(ctx, job, 60)

	clothed := avatar.URL
	if len(req.ClothingItems) > 0 {
		clothed, err = uc.Fitter.ApplyClothing(ctx, avatar.URL, req.ClothingItems)
		if err != nil {
			return &stageError{"clothing application", err}
		}
	}
	job.ClothedAvatarURL = clothed
	uc.advance(ctx, job, 80)

	job.Status = domain.JobStatusCompleted
	job.Message = msgCompleted
	job.Progress = 100
	uc.save(ctx, job)
	return nil
}

func (uc *TryOnUC) advance(ctx context.Context, job *domain.TryOnJob, progress int) {
	job.Progress = progress
	uc.save(ctx, job)
}

func (uc *TryOnUC) fail(ctx context.Context, job *domain.TryOnJob, reason string) {
	job.Status = domain.JobStatusFailed
	job.Message = msgFailed
	job.Error = reason
	uc.save(ctx, job)
}

// notify posts the terminal result once. Notified is stored before the
// request goes out; a job whose flag cannot be stored is not sent, so a
// later recovery pass delivers it instead. A failed delivery is logged and
// not retried.
func (uc *TryOnUC) notify(ctx context.Context, job *domain.TryOnJob) {
	if job.CallbackURL == "" || job.Notified || uc.Notifier == nil {
		return
	}
	job.Notified = true
	if err := uc.persist(ctx, job); err != nil {
		job.Notified = false
		log.Error().Err(err).Str("request_id", job.RequestID).Msg("record callback; delivery deferred")
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := uc.Notifier.Notify(nctx, job.CallbackURL, job.Result()); err != nil {
		log.Warn().Err(err).Str("request_id", job.RequestID).Msg("callback delivery failed")
	}
}

// save persists the job and publishes the snapshot to stream subscribers.
func (uc *TryOnUC) save(ctx context.Context, job *domain.TryOnJob) {
	if err := uc.persist(ctx, job); err != nil {
		log.Error().Err(err).Str("request_id", job.RequestID).Msg("save job")
	}
	uc.hub.publish(job.RequestID, job.Result())
}

// persist uses a fresh context when ctx is already done, so the terminal
// state is recorded even after a timeout.
func (uc *TryOnUC) persist(ctx context.Context, job *domain.TryOnJob) error {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	return uc.Jobs.Save(ctx, job)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func (uc *TryOnUC) newRequestID() (string, error) {
	var sb strings.Builder
	n36 := big.NewInt(int64(len(base36)))
	for range 8 {
		n, err := rand.Int(rand.Reader, n36)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36[n.Int64()])
	}
	return fmt.Sprintf("tryon-%d-%s", uc.now().UnixMilli(), sb.String()), nil
}

func (uc *TryOnUC) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

func terminal(s domain.JobStatus) bool {
	return s == domain.JobStatusCompleted || s == domain.JobStatusFailed
}

// hub fans job snapshots out to stream subscribers.
type hub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.TryOnResult]struct{}
}

func (h *hub) subscribe(requestID string, load func() (*domain.TryOnJob, error)) (<-chan domain.TryOnResult, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	j, err := load()
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.TryOnResult, 8)
	ch <- j.Result()
	if terminal(j.Status) {
		close(ch)
		return ch, func() {}, nil
	}
	if h.subs == nil {
		h.subs = map[string]map[chan domain.TryOnResult]struct{}{}
	}
	if h.subs[requestID] == nil {
		h.subs[requestID] = map[chan domain.TryOnResult]struct{}{}
	}
	h.subs[requestID][ch] = struct{}{}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[requestID][ch]; ok {
			delete(h.subs[requestID], ch)
			if len(h.subs[requestID]) == 0 {
				delete(h.subs, requestID)
			}
			close(ch)
		}
	}
	return ch, cancel, nil
}

func (h *hub) publish(requestID string, res domain.TryOnResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[requestID] {
		offer(ch, res)
		if terminal(res.Status) {
			close(ch)
		}
	}
	if terminal(res.Status) {
		delete(h.subs, requestID)
	}
}

// offer sends without blocking, dropping the oldest queued snapshot when the
// subscriber has fallen behind.
func offer(ch chan domain.TryOnResult, res domain.TryOnResult) {
	select {
	case ch <- res:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- res:
	default:
	}
}
