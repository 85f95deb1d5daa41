package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nvandessel/lvlup/internal/changelog"
	"github.com/nvandessel/lvlup/internal/logging"
	"github.com/nvandessel/lvlup/internal/models"
	"github.com/nvandessel/lvlup/internal/store"
)

// ErrUnknownTarget is returned when a mutation names a category or stat
// that is not in the current snapshot.
var ErrUnknownTarget = errors.New("unknown stat")

// Mutation is a request to change one stat.
type Mutation struct {
	Category string
	Stat     string
	Delta    int

	// Timestamp is recorded in the change log. Zero means now.
	Timestamp time.Time

	// Source names the caller (http, cli, mcp) for event logs.
	Source string
}

// Result is the post-mutation state of the changed stat.
type Result struct {
	Category   string `json:"category"`
	Stat       string `json:"stat"`
	Value      int    `json:"value"`
	CurrentMax int    `json:"current_max"`
	Level      int    `json:"level"`
	LeveledUp  bool   `json:"level_up"`
	TotalLevel int    `json:"total_level"`
}

// InitResult reports what Init created.
type InitResult struct {
	SnapshotCreated bool `json:"snapshot_created"`
	LogCreated      bool `json:"log_created"`
}

// Engine applies mutations to the snapshot held by a StatStore and records
// them in a ChangeLog. It is safe for concurrent use: the whole
// load, mutate, save and append sequence runs under one lock.
type Engine struct {
	mu      sync.Mutex
	store   store.StatStore
	log     changelog.ChangeLog
	logger  *slog.Logger
	events  *logging.EventLogger
	nowFunc func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEventLogger sets the JSONL event logger. A nil value disables events.
func WithEventLogger(events *logging.EventLogger) Option {
	return func(e *Engine) { e.events = events }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.nowFunc = now }
}

// NewEngine creates an engine over s and log.
func NewEngine(s store.StatStore, log changelog.ChangeLog, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		log:     log,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrDiscard(e.logger)
	return e
}

// Init persists the default snapshot and creates the change log when they
// do not exist yet. Existing data is left untouched.
func (e *Engine) Init(ctx context.Context) (*InitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := &InitResult{}

	exists, err := e.store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot: %w", err)
	}
	if !exists {
		snap, err := e.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		snap.RecomputeTotal()
		if err := e.store.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("failed to save snapshot: %w", err)
		}
		res.SnapshotCreated = true
	}

	created, err := e.log.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create change log: %w", err)
	}
	res.LogCreated = created

	e.logger.Debug("initialized data",
		"snapshot_created", res.SnapshotCreated, "log_created", res.LogCreated)
	return res, nil
}

// Snapshot returns the current snapshot.
func (e *Engine) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	return e.store.Load(ctx)
}

// ApplyDelta applies m to its stat, persists the full snapshot and then
// appends a change log entry.
//
// Unknown targets fail with ErrUnknownTarget and change nothing. If the
// snapshot cannot be saved no entry is appended. A failed append after a
// successful save is logged and does not fail the call, since the state
// change has already happened.
func (e *Engine) ApplyDelta(ctx context.Context, m Mutation) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	st, ok := snap.Lookup(m.Category, m.Stat)
	if !ok {
		e.logger.Debug("rejected mutation for unknown stat",
			"category", m.Category, "stat", m.Stat, "delta", m.Delta)
		e.events.Log(logging.Event{
			Kind:     logging.EventRejected,
			Category: m.Category,
			Stat:     m.Stat,
			Delta:    m.Delta,
			Reason:   "unknown target",
			Source:   m.Source,
		})
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTarget, m.Category, m.Stat)
	}

	next, leveledUp := Apply(st, m.Delta)
	snap.Set(m.Category, m.Stat, next)
	total := snap.RecomputeTotal()

	if err := e.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = e.nowFunc()
	}
	entry := models.LogEntry{
		Timestamp:  ts.Truncate(time.Second),
		Category:   m.Category,
		Stat:       m.Stat,
		Delta:      m.Delta,
		Value:      next.Value,
		CurrentMax: next.CurrentMax,
		Level:      next.Level,
	}
	if err := e.log.Append(ctx, entry); err != nil {
		e.logger.Error("stat saved but change log append failed",
			"category", m.Category, "stat", m.Stat, "error", err)
	}

	e.logger.Debug("applied delta",
		"category", m.Category, "stat", m.Stat, "delta", m.Delta,
		"value", next.Value, "current_max", next.CurrentMax, "level", next.Level)
	e.events.Log(logging.Event{
		Kind:     logging.EventDeltaApplied,
		Category: m.Category,
		Stat:     m.Stat,
		Delta:    m.Delta,
		Value:    next.Value,
		Max:      next.CurrentMax,
		Level:    next.Level,
		Total:    total,
		Source:   m.Source,
	})
	if leveledUp {
		e.logger.Info("level up",
			"category", m.Category, "stat", m.Stat, "level", next.Level, "total_level", total)
		e.events.Log(logging.Event{
			Kind:     logging.EventLevelUp,
			Category: m.Category,
			Stat:     m.Stat,
			Delta:    m.Delta,
			Value:    next.Value,
			Max:      next.CurrentMax,
			Level:    next.Level,
			Total:    total,
			Source:   m.Source,
		})
	}

	return &Result{
		Category:   m.Category,
		Stat:       m.Stat,
		Value:      next.Value,
		CurrentMax: next.CurrentMax,
		Level:      next.Level,
		LeveledUp:  leveledUp,
		TotalLevel: total,
	}, nil
}

// History returns change log entries inside r, measured back from now.
func (e *Engine) History(ctx context.Context, r changelog.Range) (*changelog.QueryResult, error) {
	return e.log.QueryRange(ctx, r.Cutoff(e.nowFunc()))
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.nowFunc()
}
