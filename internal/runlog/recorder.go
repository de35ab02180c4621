package runlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"profileai/internal/domain"
	"profileai/internal/infra"
)

const recordTimeout = 5 * time.Second

// Entry is what the pipeline hands over after an inference call.
type Entry struct {
	UseCase    string
	Prompt     string
	ResultText string
	Fallback   bool
	Images     []domain.UploadedImage
	Err        error
}

// Recorder writes runs in the background so the request path never waits on
// thumbnails or storage.
type Recorder struct {
	store  Store
	logger *infra.Logger
	now    func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRecorder(store Store, logger *infra.Logger) *Recorder {
	if store == nil {
		store = NopStore{}
	}
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Record schedules entry for storage and returns the run id at once. After
// Wait has been called entries are dropped.
func (r *Recorder) Record(entry Entry) string {
	id := uuid.NewString()
	if _, ok := r.store.(NopStore); ok {
		return id
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Debug().Str("run_id", id).Str("use_case", entry.UseCase).Msg("run log closed, entry dropped")
		return id
	}
	r.wg.Add(1)
	r.mu.Unlock()
	createdAt := r.now().UTC()
	go func() {
		defer r.wg.Done()
		run := Run{
			ID:         id,
			UseCase:    entry.UseCase,
			Prompt:     entry.Prompt,
			ResultText: entry.ResultText,
			Fallback:   entry.Fallback,
			Images:     Thumbnails(entry.Images),
			CreatedAt:  createdAt,
		}
		if entry.Err != nil {
			run.Error = entry.Err.Error()
		}
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.store.Record(ctx, run); err != nil {
			r.logger.Warn().Err(err).Str("run_id", id).Msg("run log write failed")
		}
	}()
	return id
}

// Recent reads the newest runs.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Run, error) {
	return r.store.Recent(ctx, ClampLimit(limit))
}

// Wait stops accepting entries and blocks until every scheduled write
// finished.
func (r *Recorder) Wait() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.wg.Wait()
}
