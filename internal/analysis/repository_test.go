package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"meal-lens/internal/adapter"
	"meal-lens/internal/metrics"
	"meal-lens/internal/normalize"
	"meal-lens/internal/nutrition"
	"meal-lens/internal/parser"
)

type mockAdapter struct {
	mu       sync.Mutex
	calls    int
	failNext bool
}

func (m *mockAdapter) Name() string { return "mock" }

func (m *mockAdapter) Analyze(_ context.Context, _ adapter.Request) (adapter.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failNext {
		m.failNext = false
		return adapter.Result{}, errors.New("provider exploded")
	}
	return adapter.Result{
		Source:    "mock",
		DishTitle: "Riso e pollo",
		Items: []parser.Item{
			{Label: "riso", DisplayName: "Riso", QuantityG: 150, Confidence: 0.9, Calories: 525, DensitySource: parser.DensityHeuristic},
			{Label: "petto di pollo", DisplayName: "Petto di pollo", QuantityG: 120, Confidence: 0.85, Calories: 198, DensitySource: parser.DensityMap},
		},
	}, nil
}

func (m *mockAdapter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestRepository(a adapter.Adapter, collector *metrics.Collector) *Repository {
	cascade := nutrition.NewCascade(nutrition.NewTable(), nil)
	engine := normalize.NewEngine(normalize.ModeEnforce, nil)
	return NewRepository(a, cascade, engine, collector, nil, nil)
}

func TestCreateOrGetIdempotence(t *testing.T) {
	mock := &mockAdapter{}
	repo := newTestRepository(mock, metrics.NewCollector())
	ctx := context.Background()

	req := Request{UserID: "u1", PhotoID: "p1", PhotoURL: "url1"}

	req.Now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	first, err := repo.CreateOrGet(ctx, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	req.Now = time.Date(2026, 8, 2, 9, 30, 0, 0, time.UTC)
	second, err := repo.CreateOrGet(ctx, req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("Expected the same record id, got %s and %s", first.ID, second.ID)
	}
	if len(first.Items) != len(second.Items) {
		t.Errorf("Expected identical items, got %d and %d", len(first.Items), len(second.Items))
	}
	if mock.callCount() != 1 {
		t.Errorf("Expected exactly 1 adapter invocation, got %d", mock.callCount())
	}
	// The memoized record keeps its original timestamp.
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Expected original timestamp, got %v", second.CreatedAt)
	}
}

func TestCreateOrGetPhotoIDSensitivity(t *testing.T) {
	mock := &mockAdapter{}
	repo := newTestRepository(mock, metrics.NewCollector())
	ctx := context.Background()

	first, err := repo.CreateOrGet(ctx, Request{UserID: "u1", PhotoID: "phA", PhotoURL: "url1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := repo.CreateOrGet(ctx, Request{UserID: "u1", PhotoID: "phB", PhotoURL: "url1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if first.ID == second.ID {
		t.Error("Expected different photo ids to yield different records")
	}
	if mock.callCount() != 2 {
		t.Errorf("Expected 2 adapter invocations, got %d", mock.callCount())
	}
}

func TestCreateOrGetExplicitKeyWins(t *testing.T) {
	mock := &mockAdapter{}
	repo := newTestRepository(mock, metrics.NewCollector())
	ctx := context.Background()

	first, err := repo.CreateOrGet(ctx, Request{UserID: "u1", PhotoID: "phA", IdempotencyKey: "meal-42"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// Different photo, same explicit key: still the same record.
	second, err := repo.CreateOrGet(ctx, Request{UserID: "u1", PhotoID: "phB", IdempotencyKey: "meal-42"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if first.ID != second.ID {
		t.Error("Expected an explicit key to override auto-derivation")
	}
	if first.IdempotencyKey != "meal-42" {
		t.Errorf("Expected the key stored verbatim, got %q", first.IdempotencyKey)
	}
	if mock.callCount() != 1 {
		t.Errorf("Expected 1 adapter invocation, got %d", mock.callCount())
	}
}

func TestDeriveKey(t *testing.T) {
	key := DeriveKey("u1", "p1", "url1")
	if len(key) != len("auto-")+16 {
		t.Errorf("Expected auto- prefix plus 16 hex chars, got %q", key)
	}
	if key != DeriveKey("u1", "p1", "url1") {
		t.Error("Expected derivation to be deterministic")
	}

	variants := []string{
		DeriveKey("u2", "p1", "url1"),
		DeriveKey("u1", "p2", "url1"),
		DeriveKey("u1", "p1", "url2"),
		DeriveKey("u1", "", "url1"),
	}
	for i, v := range variants {
		if v == key {
			t.Errorf("Variant %d: expected a different key for changed input", i)
		}
	}
}

func TestCreateOrGetConcurrentSameKey(t *testing.T) {
	mock := &mockAdapter{}
	repo := newTestRepository(mock, metrics.NewCollector())
	req := Request{UserID: "u1", PhotoID: "p1", PhotoURL: "url1"}

	const workers = 20
	results := make([]*AnalysisRecord, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.CreateOrGet(context.Background(), req)
		}(i)
	}
	wg.Wait()

	if mock.callCount() != 1 {
		t.Fatalf("Expected exactly 1 adapter invocation under contention, got %d", mock.callCount())
	}
	for i := 1; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("Worker %d: unexpected error %v", i, errs[i])
		}
		if results[i].ID != results[0].ID {
			t.Errorf("Worker %d: expected shared record %s, got %s", i, results[0].ID, results[i].ID)
		}
	}
}

func TestCreateOrGetFailureCommitsNothing(t *testing.T) {
	mock := &mockAdapter{failNext: true}
	collector := metrics.NewCollector()
	repo := newTestRepository(mock, collector)
	ctx := context.Background()
	req := Request{UserID: "u1", PhotoID: "p1", PhotoURL: "url1"}

	if _, err := repo.CreateOrGet(ctx, req); err == nil {
		t.Fatal("Expected the propagated adapter error, got nil")
	}
	if got := collector.Requests(metrics.PhaseAdapter, metrics.StatusFailed, "mock"); got != 1 {
		t.Errorf("Expected 1 failed request count, got %d", got)
	}
	if got := collector.Failed(failedCodeAdapter); got != 1 {
		t.Errorf("Expected 1 terminal failure count, got %d", got)
	}

	// The key was not committed: a retry runs the pipeline again.
	record, err := repo.CreateOrGet(ctx, req)
	if err != nil {
		t.Fatalf("Expected the retry to succeed, got %v", err)
	}
	if record.Status != StatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", record.Status)
	}
	if mock.callCount() != 2 {
		t.Errorf("Expected 2 adapter invocations, got %d", mock.callCount())
	}
}

func TestCreateOrGetPipeline(t *testing.T) {
	mock := &mockAdapter{}
	collector := metrics.NewCollector()
	repo := newTestRepository(mock, collector)

	record, err := repo.CreateOrGet(context.Background(), Request{UserID: "u1", PhotoID: "p1", PhotoURL: "url1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if record.Status != StatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", record.Status)
	}
	if record.Source != "mock+v3" {
		t.Errorf("Expected source with schema suffix, got %s", record.Source)
	}
	if record.DishTitle != "Riso e pollo" {
		t.Errorf("Expected dish title, got %q", record.DishTitle)
	}
	if len(record.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(record.Items))
	}
	// Enrichment and classification ran: riso hits the local table and is a
	// grain; per-item calories are populated.
	if record.Items[0].Category != "grain" {
		t.Errorf("Expected grain category, got %s", record.Items[0].Category)
	}
	if record.Items[0].Calories != 195 {
		t.Errorf("Expected 195 kcal for 150g of riso, got %v", record.Items[0].Calories)
	}
	if record.TotalCalories() <= 0 {
		t.Error("Expected a positive calorie total")
	}

	// Exactly one timed span per invocation.
	if got := collector.Requests(metrics.PhaseAdapter, metrics.StatusCompleted, "mock"); got != 1 {
		t.Errorf("Expected 1 completed request count, got %d", got)
	}
	if got := collector.Latency("mock").Count; got != 1 {
		t.Errorf("Expected 1 latency sample, got %d", got)
	}

	stored, ok := repo.Get("u1", record.ID)
	if !ok || stored.ID != record.ID {
		t.Error("Expected the record to be retrievable by primary id")
	}
}

func TestCreateOrGetUsersAreIsolated(t *testing.T) {
	mock := &mockAdapter{}
	repo := newTestRepository(mock, metrics.NewCollector())
	ctx := context.Background()

	first, _ := repo.CreateOrGet(ctx, Request{UserID: "u1", PhotoID: "p1", IdempotencyKey: "shared-key"})
	second, _ := repo.CreateOrGet(ctx, Request{UserID: "u2", PhotoID: "p1", IdempotencyKey: "shared-key"})

	if first.ID == second.ID {
		t.Error("Expected the same key under different users to yield different records")
	}
	if mock.callCount() != 2 {
		t.Errorf("Expected 2 adapter invocations, got %d", mock.callCount())
	}
}
