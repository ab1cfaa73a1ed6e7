// Package batch is the top-level driver: it partitions the work list,
// runs each batch through one automation session, writes every result
// back to the record store, checkpoints progress, and recovers from
// blocking by switching backends mid-batch.
package batch

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/skiptrace-cli/internal/browser"
	"github.com/sells-group/skiptrace-cli/internal/model"
	"github.com/sells-group/skiptrace-cli/internal/pacing"
	"github.com/sells-group/skiptrace-cli/internal/session"
	"github.com/sells-group/skiptrace-cli/internal/store"
)

// Looker performs one lookup. Satisfied by *lookup.Engine.
type Looker interface {
	Lookup(ctx context.Context, sess *session.Session, item model.WorkItem) (model.LookupResult, bool)
}

// Store receives result writes and persists checkpoints. The orchestrator
// treats a checkpoint failure as fatal for the run.
type Store interface {
	Apply(item model.WorkItem, res *model.LookupResult)
	Checkpoint() error
}

// FileStore persists a record-store table to a file on every checkpoint.
type FileStore struct {
	Table *store.Table
	Path  string
}

func (f *FileStore) Apply(item model.WorkItem, res *model.LookupResult) {
	store.ApplyResult(f.Table, item, res)
}

func (f *FileStore) Checkpoint() error {
	return f.Table.Save(f.Path)
}

// Recorder receives run history events. Satisfied by *journal.Journal.
// Recorder failures are logged and never abort the run; the record store
// remains the source of truth.
type Recorder interface {
	StartBatch(ctx context.Context, runID string, index, size int, backend string) (string, error)
	FinishBatch(ctx context.Context, batchID string, status model.RunStatus, backend string) error
	RecordLookup(ctx context.Context, rec model.LookupRecord) error
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) StartBatch(context.Context, string, int, int, string) (string, error) {
	return "", nil
}
func (NopRecorder) FinishBatch(context.Context, string, model.RunStatus, string) error { return nil }
func (NopRecorder) RecordLookup(context.Context, model.LookupRecord) error             { return nil }

// Config tunes the orchestrator.
type Config struct {
	BatchSize       int
	CheckpointEvery int
	Backend         browser.Backend
}

// Orchestrator drives a run: strictly sequential batches, strictly
// sequential items within a batch, one live session at a time.
type Orchestrator struct {
	engine   Looker
	sessions *session.Manager
	sleeper  *pacing.Sleeper
	store    Store
	recorder Recorder
	cfg      Config
}

// New creates an Orchestrator. recorder may be NopRecorder{}.
func New(engine Looker, sessions *session.Manager, sleeper *pacing.Sleeper, st Store, recorder Recorder, cfg Config) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 15
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 5
	}
	if cfg.Backend == "" {
		cfg.Backend = browser.BackendChromium
	}
	return &Orchestrator{
		engine:   engine,
		sessions: sessions,
		sleeper:  sleeper,
		store:    st,
		recorder: recorder,
		cfg:      cfg,
	}
}

// Run processes the whole work list. The returned counters are valid
// even when err is non-nil; partial progress has been checkpointed by
// then wherever the store allowed it.
func (o *Orchestrator) Run(ctx context.Context, runID string, items []model.WorkItem) (model.RunCounters, error) {
	state := NewRunState(len(items))
	batches := Partition(items, o.cfg.BatchSize)
	backend := o.cfg.Backend

	zap.L().Info("run starting",
		zap.String("run_id", runID),
		zap.Int("work_items", len(items)),
		zap.Int("batches", len(batches)),
		zap.String("backend", string(backend)),
	)

	for i, b := range batches {
		next, err := o.runBatch(ctx, runID, i, b, backend, state)
		if err != nil {
			return state.Counters(), err
		}
		backend = next

		if i < len(batches)-1 {
			if err := o.sleeper.Sleep(ctx, pacing.BetweenBatches); err != nil {
				return state.Counters(), err
			}
		}
	}

	return state.Counters(), nil
}

// runBatch processes one batch under one session, switching backends on
// blocking. Returns the backend in use at batch end so the next batch
// keeps the post-switch choice. A session-open failure aborts only this
// batch; its unprocessed items stay untouched in the store for a future
// run. The returned error is fatal for the whole run (checkpoint I/O or
// cancellation).
func (o *Orchestrator) runBatch(ctx context.Context, runID string, index int, items []model.WorkItem, backend browser.Backend, state *RunState) (browser.Backend, error) {
	log := zap.L().With(zap.String("run_id", runID), zap.Int("batch", index))
	log.Info("batch starting", zap.Int("items", len(items)), zap.String("backend", string(backend)))

	batchID, err := o.recorder.StartBatch(ctx, runID, index, len(items), string(backend))
	if err != nil {
		log.Warn("journal batch start failed", zap.Error(err))
	}

	sess, err := o.sessions.Open(ctx, backend)
	if err != nil {
		log.Error("session open failed, batch aborted", zap.Error(err))
		o.finishBatch(ctx, batchID, model.RunStatusFailed, backend, log)
		return backend, ctx.Err()
	}
	state.SessionOpened()

	defer func() {
		if sess != nil {
			if cerr := o.sessions.Close(ctx, sess); cerr != nil {
				log.Warn("session close failed", zap.Error(cerr))
			}
		}
	}()

	dirty := 0
	retriedAfterSwitch := false
	for i := 0; i < len(items); {
		item := items[i]

		res, blocked := o.engine.Lookup(ctx, sess, item)
		if ctx.Err() != nil {
			o.flush(dirty, log)
			return backend, ctx.Err()
		}

		if blocked && !retriedAfterSwitch {
			next, serr := o.switchBackend(ctx, sess, backend, state, log)
			sess = nil
			if serr != nil {
				o.flush(dirty, log)
				o.finishBatch(ctx, batchID, model.RunStatusFailed, backend, log)
				return backend, ctx.Err()
			}
			sess = next
			backend = next.Backend
			retriedAfterSwitch = true
			continue // retry the same item under the new identity
		}
		if blocked {
			// Blocked on both backends for this item; record and move on.
			res = model.LookupResult{Status: model.StatusError, Detail: "blocked"}
		}
		retriedAfterSwitch = false

		o.store.Apply(item, &res)
		state.RecordResult(&res)
		dirty++

		if rerr := o.recorder.RecordLookup(ctx, model.LookupRecord{
			RunID:       runID,
			BatchIndex:  index,
			RecordID:    item.RecordID,
			Group:       item.Group,
			SubjectName: item.SubjectName,
			Status:      res.Status,
			PhoneCount:  len(res.Phones),
		}); rerr != nil {
			log.Warn("journal lookup record failed", zap.Error(rerr))
		}

		if dirty >= o.cfg.CheckpointEvery {
			if err := o.store.Checkpoint(); err != nil {
				o.finishBatch(ctx, batchID, model.RunStatusFailed, backend, log)
				return backend, err
			}
			dirty = 0
			log.Debug("checkpoint saved", zap.Int("item", i+1))
		}

		i++
		if i < len(items) {
			if err := o.sleeper.Sleep(ctx, pacing.BetweenSearches); err != nil {
				o.flush(dirty, log)
				return backend, err
			}
		}
	}

	if dirty > 0 {
		if err := o.store.Checkpoint(); err != nil {
			o.finishBatch(ctx, batchID, model.RunStatusFailed, backend, log)
			return backend, err
		}
	}

	o.finishBatch(ctx, batchID, model.RunStatusComplete, backend, log)
	log.Info("batch complete", zap.String("backend", string(backend)))
	return backend, nil
}

// switchBackend tears the blocked session down, takes the long cooldown,
// and opens a replacement on the alternate backend. Exactly one switch
// per blocking event.
func (o *Orchestrator) switchBackend(ctx context.Context, sess *session.Session, backend browser.Backend, state *RunState, log *zap.Logger) (*session.Session, error) {
	alt := backend.Alternate()
	log.Warn("blocking detected, switching backend",
		zap.String("from", string(backend)),
		zap.String("to", string(alt)),
	)
	state.BackendSwitched()

	if err := o.sessions.Close(ctx, sess); err != nil {
		log.Warn("session close failed", zap.Error(err))
	}
	if err := o.sleeper.Sleep(ctx, pacing.SessionBreak); err != nil {
		return nil, err
	}

	next, err := o.sessions.Open(ctx, alt)
	if err != nil {
		log.Error("session reopen failed, batch aborted", zap.Error(err))
		return nil, err
	}
	state.SessionOpened()
	return next, nil
}

// flush persists outstanding writes best-effort before an abnormal exit.
func (o *Orchestrator) flush(dirty int, log *zap.Logger) {
	if dirty == 0 {
		return
	}
	if err := o.store.Checkpoint(); err != nil {
		log.Error("final checkpoint failed", zap.Error(err))
	}
}

func (o *Orchestrator) finishBatch(ctx context.Context, batchID string, status model.RunStatus, backend browser.Backend, log *zap.Logger) {
	if batchID == "" {
		return
	}
	if err := o.recorder.FinishBatch(ctx, batchID, status, string(backend)); err != nil {
		log.Warn("journal batch finish failed", zap.Error(err))
	}
}
