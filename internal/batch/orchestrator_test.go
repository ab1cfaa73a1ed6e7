package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/skiptrace-cli/internal/browser"
	"github.com/sells-group/skiptrace-cli/internal/model"
	"github.com/sells-group/skiptrace-cli/internal/pacing"
	"github.com/sells-group/skiptrace-cli/internal/session"
)

// fakeDriver hands out inert sessions and can be told to start failing
// at the nth open.
type fakeDriver struct {
	opened   []browser.Backend
	sessions []*fakeBrowserSession
	failFrom int // fail the nth open onward; 0 never fails
}

func (d *fakeDriver) OpenSession(_ context.Context, backend browser.Backend, _ browser.Identity) (browser.Session, error) {
	if d.failFrom > 0 && len(d.opened)+1 >= d.failFrom {
		return nil, eris.New("launch failed")
	}
	d.opened = append(d.opened, backend)
	s := &fakeBrowserSession{}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDriver) allClosed() bool {
	for _, s := range d.sessions {
		if s.closed == 0 {
			return false
		}
	}
	return true
}

type fakeBrowserSession struct{ closed int }

func (s *fakeBrowserSession) Navigate(context.Context, string) (browser.Page, error) {
	return nil, eris.New("not used")
}

func (s *fakeBrowserSession) Close(context.Context) error {
	s.closed++
	return nil
}

type lookupCall struct {
	item    model.WorkItem
	backend browser.Backend
}

// fakeLooker succeeds with one phone unless told to block. blockLeft is
// keyed by "recordID/group" and counts down per blocked attempt;
// alwaysBlock overrides everything.
type fakeLooker struct {
	calls       []lookupCall
	blockLeft   map[string]int
	alwaysBlock bool
}

func itemKey(item model.WorkItem) string {
	return fmt.Sprintf("%d/%s", item.RecordID, item.Group)
}

func (l *fakeLooker) Lookup(_ context.Context, sess *session.Session, item model.WorkItem) (model.LookupResult, bool) {
	l.calls = append(l.calls, lookupCall{item: item, backend: sess.Backend})
	if l.alwaysBlock {
		return model.LookupResult{}, true
	}
	if left := l.blockLeft[itemKey(item)]; left > 0 {
		l.blockLeft[itemKey(item)] = left - 1
		return model.LookupResult{}, true
	}
	return model.LookupResult{Status: model.StatusSuccess, Phones: []string{"(954) 555-0001"}}, false
}

// fakeStore counts applies and records how many were applied at each
// checkpoint.
type fakeStore struct {
	applied       []model.WorkItem
	statuses      []model.LookupStatus
	checkpointsAt []int
	checkpointErr error
}

func (s *fakeStore) Apply(item model.WorkItem, res *model.LookupResult) {
	s.applied = append(s.applied, item)
	s.statuses = append(s.statuses, res.Status)
}

func (s *fakeStore) Checkpoint() error {
	if s.checkpointErr != nil {
		return s.checkpointErr
	}
	s.checkpointsAt = append(s.checkpointsAt, len(s.applied))
	return nil
}

type batchEvent struct {
	index   int
	size    int
	backend string
	status  model.RunStatus
}

type fakeRecorder struct {
	started  []batchEvent
	finished []batchEvent
	lookups  []model.LookupRecord
}

func (r *fakeRecorder) StartBatch(_ context.Context, _ string, index, size int, backend string) (string, error) {
	r.started = append(r.started, batchEvent{index: index, size: size, backend: backend})
	return fmt.Sprintf("b%d", index), nil
}

func (r *fakeRecorder) FinishBatch(_ context.Context, batchID string, status model.RunStatus, backend string) error {
	var index int
	_, _ = fmt.Sscanf(batchID, "b%d", &index)
	r.finished = append(r.finished, batchEvent{index: index, backend: backend, status: status})
	return nil
}

func (r *fakeRecorder) RecordLookup(_ context.Context, rec model.LookupRecord) error {
	r.lookups = append(r.lookups, rec)
	return nil
}

func fastSleeper() *pacing.Sleeper {
	ranges := map[pacing.DelayClass]pacing.Range{}
	for class := range pacing.DefaultRanges() {
		ranges[class] = pacing.Range{Min: time.Microsecond, Max: 2 * time.Microsecond}
	}
	return pacing.New(ranges, 0)
}

func newTestOrchestrator(looker Looker, driver *fakeDriver, st Store, rec Recorder) *Orchestrator {
	mgr := session.NewManager(driver, session.DefaultIdentityPool(), 0)
	return New(looker, mgr, fastSleeper(), st, rec, Config{
		BatchSize:       15,
		CheckpointEvery: 5,
		Backend:         browser.BackendChromium,
	})
}

func TestRun_CheckpointCadenceAndOrdering(t *testing.T) {
	looker := &fakeLooker{}
	driver := &fakeDriver{}
	st := &fakeStore{}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(looker, driver, st, rec)

	items := workList(17)
	counters, err := o.Run(context.Background(), "run-1", items)
	require.NoError(t, err)

	// Every item processed exactly once, in enumeration order.
	require.Len(t, looker.calls, 17)
	for i, call := range looker.calls {
		assert.Equal(t, i, call.item.RecordID)
	}
	assert.Equal(t, items, st.applied)

	// Batch 1 saves after items 5, 10, 15; batch 2 saves at its end.
	assert.Equal(t, []int{5, 10, 15, 17}, st.checkpointsAt)

	assert.Equal(t, model.RunCounters{
		WorkItems: 17, Processed: 17, Succeeded: 17,
		SessionsOpened: 2,
	}, counters)

	// One session per batch, all torn down.
	assert.Equal(t, []browser.Backend{browser.BackendChromium, browser.BackendChromium}, driver.opened)
	assert.True(t, driver.allClosed())

	require.Len(t, rec.started, 2)
	assert.Equal(t, batchEvent{index: 0, size: 15, backend: "chromium"}, rec.started[0])
	assert.Equal(t, batchEvent{index: 1, size: 2, backend: "chromium"}, rec.started[1])
	require.Len(t, rec.finished, 2)
	assert.Equal(t, model.RunStatusComplete, rec.finished[0].status)
	assert.Len(t, rec.lookups, 17)
}

func TestRun_BlockingSwitchesBackendOnce(t *testing.T) {
	looker := &fakeLooker{blockLeft: map[string]int{"1/DirectName": 1}}
	driver := &fakeDriver{}
	st := &fakeStore{}
	o := newTestOrchestrator(looker, driver, st, NopRecorder{})

	counters, err := o.Run(context.Background(), "run-1", workList(3))
	require.NoError(t, err)

	// Item 1 is retried on the alternate backend before item 2 runs.
	require.Len(t, looker.calls, 4)
	assert.Equal(t, browser.BackendChromium, looker.calls[0].backend)
	assert.Equal(t, browser.BackendChromium, looker.calls[1].backend)
	assert.Equal(t, 1, looker.calls[1].item.RecordID)
	assert.Equal(t, browser.BackendFirefox, looker.calls[2].backend)
	assert.Equal(t, 1, looker.calls[2].item.RecordID)
	assert.Equal(t, browser.BackendFirefox, looker.calls[3].backend)

	assert.Equal(t, 1, counters.BackendSwitches)
	assert.Equal(t, 2, counters.SessionsOpened)
	assert.Equal(t, 3, counters.Processed)
	assert.Equal(t, 3, counters.Succeeded)

	assert.Equal(t, []browser.Backend{browser.BackendChromium, browser.BackendFirefox}, driver.opened)
	assert.True(t, driver.allClosed())
}

func TestRun_PersistentBlockingRecordsErrorAndAdvances(t *testing.T) {
	looker := &fakeLooker{alwaysBlock: true}
	driver := &fakeDriver{}
	st := &fakeStore{}
	o := newTestOrchestrator(looker, driver, st, NopRecorder{})

	counters, err := o.Run(context.Background(), "run-1", workList(2))
	require.NoError(t, err)

	// Two attempts per item: original backend, then the alternate.
	assert.Len(t, looker.calls, 4)
	assert.Equal(t, []model.LookupStatus{model.StatusError, model.StatusError}, st.statuses)
	assert.Equal(t, 2, counters.BackendSwitches)
	assert.Equal(t, 3, counters.SessionsOpened)
	assert.Equal(t, 2, counters.Failed)

	// Alternation walks chromium -> firefox -> chromium.
	assert.Equal(t, []browser.Backend{
		browser.BackendChromium, browser.BackendFirefox, browser.BackendChromium,
	}, driver.opened)
	assert.True(t, driver.allClosed())
}

func TestRun_SessionOpenFailureAbortsBatchOnly(t *testing.T) {
	looker := &fakeLooker{}
	driver := &fakeDriver{failFrom: 2}
	st := &fakeStore{}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(looker, driver, st, rec)

	counters, err := o.Run(context.Background(), "run-1", workList(17))
	require.NoError(t, err)

	// Batch 1 completed; batch 2's items stay untouched for a later run.
	assert.Equal(t, 15, counters.Processed)
	assert.Equal(t, 1, counters.SessionsOpened)
	assert.Len(t, st.applied, 15)

	require.Len(t, rec.finished, 2)
	assert.Equal(t, model.RunStatusComplete, rec.finished[0].status)
	assert.Equal(t, model.RunStatusFailed, rec.finished[1].status)
	assert.True(t, driver.allClosed())
}

func TestRun_CheckpointFailureIsFatal(t *testing.T) {
	looker := &fakeLooker{}
	driver := &fakeDriver{}
	st := &fakeStore{checkpointErr: eris.New("disk full")}
	o := newTestOrchestrator(looker, driver, st, NopRecorder{})

	counters, err := o.Run(context.Background(), "run-1", workList(6))
	require.Error(t, err)

	// Fails at the first checkpoint, after five items.
	assert.Equal(t, 5, counters.Processed)
	assert.True(t, driver.allClosed(), "session must be released on fatal error")
}

func TestRun_ContextCancellation(t *testing.T) {
	looker := &fakeLooker{}
	driver := &fakeDriver{}
	st := &fakeStore{}
	o := newTestOrchestrator(looker, driver, st, NopRecorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, "run-1", workList(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, driver.allClosed())
}
