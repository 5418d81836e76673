package pricing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Action names an asynchronous operation of a session.
type Action string

const (
	ActionUpload    Action = "upload"
	ActionRecompute Action = "recompute"
	ActionSearch    Action = "search"
	ActionExport    Action = "export"
)

// TaskKey identifies a task slot. Catalogue searches are keyed per row.
type TaskKey struct {
	Action Action
	RowID  string
}

func (k TaskKey) String() string {
	if k.RowID == "" {
		return string(k.Action)
	}
	return string(k.Action) + ":" + k.RowID
}

type TaskStatus string

const (
	TaskIdle      TaskStatus = "idle"
	TaskInFlight  TaskStatus = "in_flight"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// TaskState is the last known state of a task slot.
type TaskState struct {
	Status     TaskStatus `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  time.Time  `json:"startedAt,omitzero"`
	FinishedAt time.Time  `json:"finishedAt,omitzero"`
}

// BeginPolicy decides what happens when a slot is already busy.
type BeginPolicy int

const (
	// RejectIfBusy refuses to start a second task in the slot.
	RejectIfBusy BeginPolicy = iota
	// Supersede cancels the running task and starts the new one.
	Supersede
)

// TaskObserver receives task outcomes, e.g. for metrics.
type TaskObserver interface {
	ObserveTask(action Action, status TaskStatus, d time.Duration)
}

// Task is a handle on one asynchronous operation.
type Task struct {
	key     TaskKey
	seq     uint64
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
	started time.Time
}

func (t *Task) Key() TaskKey          { return t.key }
func (t *Task) Seq() uint64           { return t.seq }
func (t *Task) Cancel()               { t.cancel() }
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task result once Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tracker runs tasks and keeps a state machine per slot:
// Idle -> InFlight -> Succeeded | Failed.
type Tracker struct {
	mu       sync.Mutex
	states   map[TaskKey]TaskState
	active   map[TaskKey]*Task
	seq      uint64
	timeout  time.Duration
	observer TaskObserver
	now      func() time.Time
}

// NewTracker creates a tracker. A zero timeout disables the per-task deadline.
func NewTracker(timeout time.Duration, observer TaskObserver) *Tracker {
	return &Tracker{
		states:   make(map[TaskKey]TaskState),
		active:   make(map[TaskKey]*Task),
		timeout:  timeout,
		observer: observer,
		now:      time.Now,
	}
}

// Go starts fn in its own goroutine in the given slot. fn receives a context
// that is cancelled when the task is superseded, cancelled or times out.
func (tr *Tracker) Go(parent context.Context, key TaskKey, policy BeginPolicy, fn func(ctx context.Context, t *Task) error) (*Task, error) {
	tr.mu.Lock()
	if prev, busy := tr.active[key]; busy {
		if policy == RejectIfBusy {
			tr.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrTaskInFlight, key)
		}
		prev.cancel()
		delete(tr.active, key)
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if tr.timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, tr.timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	tr.seq++
	t := &Task{
		key:     key,
		seq:     tr.seq,
		cancel:  cancel,
		done:    make(chan struct{}),
		started: tr.now(),
	}
	tr.active[key] = t
	tr.states[key] = TaskState{Status: TaskInFlight, StartedAt: t.started}
	tr.mu.Unlock()

	go func() {
		err := fn(ctx, t)
		cancel()
		tr.finish(t, err)
	}()
	return t, nil
}

func (tr *Tracker) finish(t *Task, err error) {
	tr.mu.Lock()
	current := tr.active[t.key] == t
	finished := tr.now()
	status := TaskSucceeded
	if err != nil {
		status = TaskFailed
	}
	if current {
		delete(tr.active, t.key)
		st := TaskState{Status: status, StartedAt: t.started, FinishedAt: finished}
		if err != nil {
			st.Reason = failureReason(err)
		}
		tr.states[t.key] = st
	}
	tr.mu.Unlock()

	if current && tr.observer != nil {
		tr.observer.ObserveTask(t.key.Action, status, finished.Sub(t.started))
	}
	t.err = err
	close(t.done)
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	return err.Error()
}

// Cancel stops the task running in the slot, if any, and resets the slot to Idle.
func (tr *Tracker) Cancel(key TaskKey) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if t, ok := tr.active[key]; ok {
		t.cancel()
		delete(tr.active, key)
	}
	delete(tr.states, key)
}

// CancelAll stops every running task.
func (tr *Tracker) CancelAll() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for key, t := range tr.active {
		t.cancel()
		delete(tr.active, key)
		delete(tr.states, key)
	}
}

// Busy reports whether a task is in flight in the slot.
func (tr *Tracker) Busy(key TaskKey) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	_, ok := tr.active[key]
	return ok
}

// State returns the state of a slot; unknown slots are Idle.
func (tr *Tracker) State(key TaskKey) TaskState {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if st, ok := tr.states[key]; ok {
		return st
	}
	return TaskState{Status: TaskIdle}
}

// KeyedState is a slot with its state.
type KeyedState struct {
	Key   TaskKey
	State TaskState
}

// States lists every slot that left Idle, ordered by key.
func (tr *Tracker) States() []KeyedState {
	tr.mu.Lock()
	out := make([]KeyedState, 0, len(tr.states))
	for k, st := range tr.states {
		out = append(out, KeyedState{Key: k, State: st})
	}
	tr.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}
