package progression

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nvandessel/lvlup/internal/changelog"
	"github.com/nvandessel/lvlup/internal/models"
	"github.com/nvandessel/lvlup/internal/store"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	engine *Engine
	store  *store.InMemoryStatStore
	log    *changelog.FileLog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := store.NewInMemoryStatStore()
	l := changelog.NewFileLog(t.TempDir(), changelog.WithLocation(time.UTC))
	e := NewEngine(s, l, WithClock(func() time.Time { return fixedNow }))
	return &testEnv{engine: e, store: s, log: l}
}

// seed stores a snapshot where Physical/Strength is st.
func (env *testEnv) seed(t *testing.T, st models.Stat) {
	t.Helper()
	snap := models.DefaultSnapshot()
	snap.Set("Physical", "Strength", st)
	snap.RecomputeTotal()
	if err := env.store.Save(context.Background(), snap); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func (env *testEnv) entries(t *testing.T) []changelog.Record {
	t.Helper()
	res, err := env.log.QueryRange(context.Background(), changelog.MinTime)
	if errors.Is(err, changelog.ErrLogUnavailable) {
		return nil
	}
	if err != nil {
		t.Fatalf("QueryRange() error = %v", err)
	}
	return res.Records
}

func TestEngine_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		start models.Stat
		delta int
		want  Result
	}{
		{
			name:  "A: +5 from zero",
			start: models.Stat{Value: 0, CurrentMax: 5, BaseMax: 5, Level: 0},
			delta: 5,
			want:  Result{Value: 0, CurrentMax: 7, Level: 1, LeveledUp: true, TotalLevel: 1},
		},
		{
			name:  "B: +3 from two",
			start: models.Stat{Value: 2, CurrentMax: 5, BaseMax: 5, Level: 0},
			delta: 3,
			want:  Result{Value: 0, CurrentMax: 7, Level: 1, LeveledUp: true, TotalLevel: 1},
		},
		{
			name:  "C: -10 clamps",
			start: models.Stat{Value: 3, CurrentMax: 5, BaseMax: 5, Level: 0},
			delta: -10,
			want:  Result{Value: 0, CurrentMax: 5, Level: 0, TotalLevel: 0},
		},
		{
			name:  "D: +2 accumulates",
			start: models.Stat{Value: 2, CurrentMax: 5, BaseMax: 5, Level: 0},
			delta: 2,
			want:  Result{Value: 4, CurrentMax: 5, Level: 0, TotalLevel: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, tt.start)
			ctx := context.Background()

			got, err := env.engine.ApplyDelta(ctx, Mutation{Category: "Physical", Stat: "Strength", Delta: tt.delta})
			if err != nil {
				t.Fatalf("ApplyDelta() error = %v", err)
			}
			tt.want.Category = "Physical"
			tt.want.Stat = "Strength"
			if *got != tt.want {
				t.Errorf("ApplyDelta() = %+v, want %+v", *got, tt.want)
			}

			snap, err := env.store.Load(ctx)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			st, _ := snap.Lookup("Physical", "Strength")
			if st.Value != tt.want.Value || st.CurrentMax != tt.want.CurrentMax || st.Level != tt.want.Level {
				t.Errorf("persisted stat = %+v, want result %+v", st, tt.want)
			}
			if snap.TotalLevel != tt.want.TotalLevel {
				t.Errorf("persisted total_level = %d, want %d", snap.TotalLevel, tt.want.TotalLevel)
			}

			records := env.entries(t)
			if len(records) != 1 {
				t.Fatalf("got %d log entries, want 1", len(records))
			}
			e := records[0].Entry
			if e.Delta != tt.delta || e.Value != tt.want.Value || e.CurrentMax != tt.want.CurrentMax || e.Level != tt.want.Level {
				t.Errorf("log entry = %+v", e)
			}
			if !e.Timestamp.Equal(fixedNow) {
				t.Errorf("log timestamp = %v, want %v", e.Timestamp, fixedNow)
			}
		})
	}
}

func TestEngine_UnknownTarget(t *testing.T) {
	tests := []struct {
		category string
		stat     string
	}{
		{"Nope", "X"},
		{"Physical", "X"},
		{"Nope", "Strength"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.stat, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			res, err := env.engine.ApplyDelta(ctx, Mutation{Category: tt.category, Stat: tt.stat, Delta: 1})
			if !errors.Is(err, ErrUnknownTarget) {
				t.Fatalf("ApplyDelta() error = %v, want ErrUnknownTarget", err)
			}
			if res != nil {
				t.Errorf("ApplyDelta() result = %+v, want nil", res)
			}
			if env.store.Saves() != 0 {
				t.Errorf("store saved %d times, want 0", env.store.Saves())
			}
			if records := env.entries(t); len(records) != 0 {
				t.Errorf("got %d log entries, want 0", len(records))
			}
		})
	}
}

func TestEngine_SaveFailureSkipsLog(t *testing.T) {
	env := newTestEnv(t)
	env.store.SaveErr = errors.New("disk full")

	_, err := env.engine.ApplyDelta(context.Background(), Mutation{Category: "Physical", Stat: "Strength", Delta: 1})
	if err == nil {
		t.Fatal("ApplyDelta() error = nil, want save failure")
	}
	if records := env.entries(t); len(records) != 0 {
		t.Errorf("got %d log entries after failed save, want 0", len(records))
	}
}

type failingLog struct {
	changelog.ChangeLog
}

func (failingLog) Append(ctx context.Context, entry models.LogEntry) error {
	return errors.New("read-only filesystem")
}

func TestEngine_AppendFailureKeepsState(t *testing.T) {
	s := store.NewInMemoryStatStore()
	e := NewEngine(s, failingLog{})
	ctx := context.Background()

	res, err := e.ApplyDelta(ctx, Mutation{Category: "Mental", Stat: "Memory", Delta: 2})
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	if res.Value != 2 {
		t.Errorf("Value = %d, want 2", res.Value)
	}
	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st, _ := snap.Lookup("Mental", "Memory"); st.Value != 2 {
		t.Errorf("persisted value = %d, want 2", st.Value)
	}
}

func TestEngine_ZeroDelta(t *testing.T) {
	env := newTestEnv(t)
	start := models.Stat{Value: 3, CurrentMax: 7, BaseMax: 5, Level: 1}
	env.seed(t, start)

	res, err := env.engine.ApplyDelta(context.Background(), Mutation{Category: "Physical", Stat: "Strength", Delta: 0})
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	if res.Value != start.Value || res.CurrentMax != start.CurrentMax || res.Level != start.Level || res.LeveledUp {
		t.Errorf("ApplyDelta(0) = %+v, want unchanged %+v", res, start)
	}
}

func TestEngine_TotalLevelIsRecomputed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A stale total in storage must not leak into the result.
	snap := models.DefaultSnapshot()
	snap.Set("Social", "Charisma", models.Stat{Value: 0, CurrentMax: 9, BaseMax: 5, Level: 2})
	snap.TotalLevel = 40
	if err := env.store.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	targets := []struct{ category, stat string }{
		{"Physical", "Strength"},
		{"Mental", "Memory"},
		{"Physical", "Strength"},
	}
	for _, tgt := range targets {
		if _, err := env.engine.ApplyDelta(ctx, Mutation{Category: tgt.category, Stat: tgt.stat, Delta: 100}); err != nil {
			t.Fatalf("ApplyDelta() error = %v", err)
		}
	}

	got, err := env.engine.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	sum := 0
	for _, cat := range got.Categories {
		for _, st := range cat {
			sum += st.Level
		}
	}
	if sum != 5 {
		t.Errorf("sum of levels = %d, want 5", sum)
	}
	if got.TotalLevel != sum {
		t.Errorf("TotalLevel = %d, want %d", got.TotalLevel, sum)
	}
}

func TestEngine_SuppliedTimestamp(t *testing.T) {
	env := newTestEnv(t)
	ts := time.Date(2026, 9, 1, 7, 15, 30, 999, time.UTC)

	_, err := env.engine.ApplyDelta(context.Background(), Mutation{
		Category:  "Social",
		Stat:      "Appearance",
		Delta:     1,
		Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}

	records := env.entries(t)
	if len(records) != 1 {
		t.Fatalf("got %d log entries, want 1", len(records))
	}
	if want := ts.Truncate(time.Second); !records[0].Entry.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", records[0].Entry.Timestamp, want)
	}
}

func TestEngine_ConcurrentMutationsAreSerialized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.engine.ApplyDelta(ctx, Mutation{Category: "Physical", Stat: "Agility", Delta: 1}); err != nil {
				t.Errorf("ApplyDelta() error = %v", err)
			}
		}()
	}
	wg.Wait()

	// Replaying the log must reproduce the stored state: no update was lost.
	st := models.NewStat(5)
	for _, rec := range env.entries(t) {
		st, _ = Apply(st, rec.Entry.Delta)
	}
	snap, err := env.store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, _ := snap.Lookup("Physical", "Agility")
	if got != st {
		t.Errorf("stored %+v, replayed %+v", got, st)
	}
	if n := len(env.entries(t)); n != workers {
		t.Errorf("got %d log entries, want %d", n, workers)
	}
	if env.store.Saves() != workers {
		t.Errorf("got %d saves, want %d", env.store.Saves(), workers)
	}
}

func TestEngine_History(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.History(ctx, changelog.RangeWeek); !errors.Is(err, changelog.ErrLogUnavailable) {
		t.Fatalf("History() on fresh data error = %v, want ErrLogUnavailable", err)
	}

	stamps := []time.Time{
		fixedNow.Add(-400 * 24 * time.Hour),
		fixedNow.Add(-100 * 24 * time.Hour),
		fixedNow.Add(-7 * 24 * time.Hour),
		fixedNow.Add(-time.Hour),
	}
	for _, ts := range stamps {
		if _, err := env.engine.ApplyDelta(ctx, Mutation{Category: "Mental", Stat: "Perception", Delta: 1, Timestamp: ts}); err != nil {
			t.Fatalf("ApplyDelta() error = %v", err)
		}
	}

	tests := []struct {
		r    changelog.Range
		want int
	}{
		{changelog.RangeWeek, 2},
		{changelog.RangeMonth, 2},
		{changelog.RangeHalfYear, 3},
		{changelog.RangeYear, 3},
		{changelog.RangeAll, 4},
	}
	for _, tt := range tests {
		t.Run(tt.r.String(), func(t *testing.T) {
			res, err := env.engine.History(ctx, tt.r)
			if err != nil {
				t.Fatalf("History() error = %v", err)
			}
			if len(res.Records) != tt.want {
				t.Errorf("got %d records, want %d", len(res.Records), tt.want)
			}
		})
	}
}

func TestEngine_Init(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.Init(ctx)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !res.SnapshotCreated || !res.LogCreated {
		t.Errorf("Init() = %+v, want both created", res)
	}

	if _, err := env.engine.ApplyDelta(ctx, Mutation{Category: "Physical", Stat: "Speech", Delta: 1}); err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}

	res, err = env.engine.Init(ctx)
	if err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if res.SnapshotCreated || res.LogCreated {
		t.Errorf("second Init() = %+v, want nothing created", res)
	}

	snap, err := env.store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if st, _ := snap.Lookup("Physical", "Speech"); st.Value != 1 {
		t.Errorf("Init overwrote existing data: %+v", st)
	}
}
