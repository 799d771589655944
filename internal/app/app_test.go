package app

import (
	"context"
	"errors"
	"testing"

	"meal-lens/internal/config"
	"meal-lens/internal/nutrition"
)

type fakeFoodData struct {
	table       map[string]nutrition.Profile
	tableErr    error
	submitted   []string
	submitErr   error
	lookupCalls int
}

func (f *fakeFoodData) Lookup(_ context.Context, label string) (nutrition.Profile, bool, error) {
	f.lookupCalls++
	p, ok := f.table[label]
	return p, ok, nil
}

func (f *fakeFoodData) FetchTable(_ context.Context) (map[string]nutrition.Profile, error) {
	if f.tableErr != nil {
		return nil, f.tableErr
	}
	return f.table, nil
}

func (f *fakeFoodData) SubmitLabel(_ context.Context, label string) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, label)
	return nil
}

func TestSyncFoods(t *testing.T) {
	table := nutrition.NewTable()
	before := table.Len()

	fake := &fakeFoodData{table: map[string]nutrition.Profile{
		"guacamole": {Calories: 160, Fat: 15.0},
		"hummus":    {Calories: 166, Protein: 8.0},
	}}
	a := NewApp(&config.Config{}, nil, table, fake, nil, nil)

	if err := a.SyncFoods(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if table.Len() != before+2 {
		t.Errorf("Expected %d labels after merge, got %d", before+2, table.Len())
	}
	if _, ok := table.Lookup("guacamole"); !ok {
		t.Error("Expected merged label to be resolvable")
	}
}

func TestSyncFoodsFetchError(t *testing.T) {
	fake := &fakeFoodData{tableErr: errors.New("service down")}
	a := NewApp(&config.Config{}, nil, nutrition.NewTable(), fake, nil, nil)

	if err := a.SyncFoods(context.Background()); err == nil {
		t.Fatal("Expected a fetch error, got nil")
	}
}

func TestSyncFoodsUnconfigured(t *testing.T) {
	a := NewApp(&config.Config{}, nil, nutrition.NewTable(), nil, nil, nil)

	if err := a.SyncFoods(context.Background()); err == nil {
		t.Fatal("Expected an error without a configured service, got nil")
	}
}

func TestReportLabel(t *testing.T) {
	fake := &fakeFoodData{}
	a := NewApp(&config.Config{}, nil, nutrition.NewTable(), fake, nil, nil)

	if err := a.ReportLabel(context.Background(), "  Zuppa, Misteriosa!  "); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(fake.submitted) != 1 || fake.submitted[0] != "zuppa misteriosa" {
		t.Errorf("Expected normalized label to be submitted, got %v", fake.submitted)
	}
}

func TestReportLabelAlreadyKnown(t *testing.T) {
	fake := &fakeFoodData{}
	a := NewApp(&config.Config{}, nil, nutrition.NewTable(), fake, nil, nil)

	// "riso" ships with the built-in table.
	if err := a.ReportLabel(context.Background(), "Riso"); err == nil {
		t.Fatal("Expected an error for a known label, got nil")
	}
	if len(fake.submitted) != 0 {
		t.Errorf("Expected no submission, got %v", fake.submitted)
	}
}
