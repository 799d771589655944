package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"meal-lens/internal/adapter"
	"meal-lens/internal/metrics"
	"meal-lens/internal/normalize"
	"meal-lens/internal/nutrition"
	"meal-lens/internal/parser"

	"github.com/google/uuid"
)

// failedCodeAdapter tags terminal failures whose cause was an unclassified
// adapter error.
const failedCodeAdapter = "ADAPTER_ERROR"

// Request carries the inbound parameters of one create-or-get call.
type Request struct {
	UserID         string
	PhotoID        string
	PhotoURL       string
	Text           string
	Hint           string
	IdempotencyKey string
	Now            time.Time
}

// Archiver persists completed records durably. The repository treats it as
// best-effort on write and as a second-level cache on read.
type Archiver interface {
	Save(ctx context.Context, rec AnalysisRecord) error
	FindByKey(ctx context.Context, userID, key string) (*AnalysisRecord, error)
}

// InvocationRecorder persists per-invocation adapter telemetry.
type InvocationRecorder interface {
	Record(ctx context.Context, inv metrics.AdapterInvocation) error
}

// entry guards one idempotency key. The first request creates it and runs
// the pipeline; concurrent requests with the same key wait on done instead
// of invoking the adapter a second time.
type entry struct {
	done   chan struct{}
	record *AnalysisRecord
	err    error
}

// Repository is the idempotent orchestration entry point: it derives or
// validates the idempotency key, memoizes results per (user, key), and runs
// the recognition pipeline at most once per key.
type Repository struct {
	adapter   adapter.Adapter
	cascade   *nutrition.Cascade
	engine    *normalize.Engine
	collector *metrics.Collector
	archive   Archiver           // may be nil
	recorder  InvocationRecorder // may be nil

	mu      sync.Mutex
	records map[string]map[string]*AnalysisRecord // user -> analysis id
	index   map[string]map[string]*entry          // user -> idempotency key
}

// NewRepository creates a Repository. archive and recorder are optional.
func NewRepository(
	a adapter.Adapter,
	cascade *nutrition.Cascade,
	engine *normalize.Engine,
	collector *metrics.Collector,
	archive Archiver,
	recorder InvocationRecorder,
) *Repository {
	return &Repository{
		adapter:   a,
		cascade:   cascade,
		engine:    engine,
		collector: collector,
		archive:   archive,
		recorder:  recorder,
		records:   make(map[string]map[string]*AnalysisRecord),
		index:     make(map[string]map[string]*entry),
	}
}

// CreateOrGet returns the existing record for the request's idempotency key
// or runs the full pipeline exactly once to produce it. A failed or canceled
// pipeline commits nothing, so a retry with the same key can attempt the
// work again.
func (r *Repository) CreateOrGet(ctx context.Context, req Request) (*AnalysisRecord, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = DeriveKey(req.UserID, req.PhotoID, req.PhotoURL)
	}

	r.mu.Lock()
	userIndex, ok := r.index[req.UserID]
	if !ok {
		userIndex = make(map[string]*entry)
		r.index[req.UserID] = userIndex
	}
	if existing, ok := userIndex[key]; ok {
		r.mu.Unlock()
		select {
		case <-existing.done:
			if existing.err != nil {
				return nil, existing.err
			}
			return existing.record, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e := &entry{done: make(chan struct{})}
	userIndex[key] = e
	r.mu.Unlock()

	record, err := r.run(ctx, req, key)

	r.mu.Lock()
	if err != nil {
		delete(r.index[req.UserID], key)
	} else {
		userRecords, ok := r.records[req.UserID]
		if !ok {
			userRecords = make(map[string]*AnalysisRecord)
			r.records[req.UserID] = userRecords
		}
		userRecords[record.ID] = record
	}
	r.mu.Unlock()

	e.record = record
	e.err = err
	close(e.done)

	return record, err
}

// Get returns a stored record by its primary id.
func (r *Repository) Get(userID, analysisID string) (*AnalysisRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[userID][analysisID]
	return record, ok
}

func (r *Repository) run(ctx context.Context, req Request, key string) (*AnalysisRecord, error) {
	// Durable records from a previous process satisfy the key without a new
	// adapter invocation.
	if r.archive != nil {
		if archived, err := r.archive.FindByKey(ctx, req.UserID, key); err != nil {
			log.Printf("Warning: archive lookup for key %s failed: %v", key, err)
		} else if archived != nil {
			return archived, nil
		}
	}

	done := r.collector.TimeAdapter(r.adapter.Name())
	start := time.Now()
	result, err := r.adapter.Analyze(ctx, adapter.Request{
		UserID:   req.UserID,
		PhotoID:  req.PhotoID,
		PhotoURL: req.PhotoURL,
		Text:     req.Text,
		Hint:     req.Hint,
	})
	elapsed := time.Since(start)
	if err != nil {
		done(metrics.StatusFailed)
		r.collector.IncFailed(failedCodeAdapter)
		r.recordInvocation(metrics.AdapterInvocation{
			Source:    r.adapter.Name(),
			Status:    metrics.StatusFailed,
			ErrorCode: failedCodeAdapter,
			LatencyMS: elapsed.Milliseconds(),
		})
		return nil, fmt.Errorf("analysis pipeline failed: %w", err)
	}
	done(metrics.StatusCompleted)
	r.recordInvocation(metrics.AdapterInvocation{
		Source:         result.Source,
		Status:         metrics.StatusCompleted,
		FallbackReason: result.FallbackReason,
		LatencyMS:      elapsed.Milliseconds(),
	})

	enriched := r.cascade.Enrich(ctx, result.Items)
	items, advisories := r.engine.Normalize(result.Items, enriched)

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	record := &AnalysisRecord{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Status:         StatusCompleted,
		Source:         fmt.Sprintf("%s+v%d", result.Source, parser.SchemaVersion),
		DishTitle:      result.DishTitle,
		Items:          items,
		Advisories:     advisories,
		FallbackReason: result.FallbackReason,
		IdempotencyKey: key,
		CreatedAt:      now,
	}

	if r.archive != nil {
		if err := r.archive.Save(ctx, *record); err != nil {
			log.Printf("Warning: failed to archive analysis %s: %v", record.ID, err)
		}
	}

	return record, nil
}

func (r *Repository) recordInvocation(inv metrics.AdapterInvocation) {
	if r.recorder == nil {
		return
	}
	// Telemetry must not block or fail the request path.
	if err := r.recorder.Record(context.Background(), inv); err != nil {
		log.Printf("Warning: failed to persist adapter invocation: %v", err)
	}
}
