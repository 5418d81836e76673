package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultBudgetFile names the budget of sessions resumed past the upload step.
const DefaultBudgetFile = "Pelhřimov_Budget_v1.xlsx"

// Deps are the collaborators and settings shared by all sessions.
type Deps struct {
	Intake       Intake
	Recalculator Recalculator
	Searcher     CatalogueSearcher
	Exporter     Exporter
	Observer     Observer
	Logger       *zap.Logger

	TaskTimeout     time.Duration
	SearchLimit     int
	SearchThreshold float64
	Now             func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Observer == nil {
		d.Observer = noopObserver{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.SearchLimit < 1 {
		d.SearchLimit = DefaultSearchLimit
	}
	// Zero means unset; config rejects a configured zero.
	if d.SearchThreshold <= 0 || d.SearchThreshold > 1 {
		d.SearchThreshold = DefaultSearchThreshold
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Banner is a dismissible report of a failed background task.
type Banner struct {
	Action  Action    `json:"action"`
	RowID   string    `json:"rowId,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Session is one pricing session: a workflow, the row store it owns and the
// tasks running against it. All methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	id       string
	order    *Order
	fileName string
	workflow *Workflow
	store    *Store
	tasks    *Tracker
	flows    map[string]*SearchFlow
	artifact *Artifact
	banner   *Banner
	lastSeen time.Time

	deps Deps
	log  *zap.Logger
}

// NewSession opens a session for order, which may be nil. Sessions that start
// past the upload step are seeded with the default budget through the intake.
func NewSession(ctx context.Context, id string, order *Order, deps Deps) (*Session, error) {
	deps = deps.withDefaults()
	s := &Session{
		id:       id,
		order:    order,
		workflow: NewWorkflow(order),
		tasks:    NewTracker(deps.TaskTimeout, deps.Observer),
		flows:    make(map[string]*SearchFlow),
		lastSeen: deps.Now(),
		deps:     deps,
		log:      deps.Logger.With(zap.String("session", id)),
	}
	if order != nil {
		s.log = s.log.With(zap.String("order", order.ID))
	}

	if s.workflow.Step() > StepUpload {
		rows, err := deps.Intake.Process(ctx, Upload{Name: DefaultBudgetFile})
		if err != nil {
			return nil, fmt.Errorf("seed budget: %w", err)
		}
		if s.store, err = NewStore(rows); err != nil {
			return nil, fmt.Errorf("seed budget: %w", err)
		}
		s.fileName = DefaultBudgetFile
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workflow.Step()
}

// LastSeen is the time of the last operation on the session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close cancels every running task.
func (s *Session) Close() {
	s.tasks.CancelAll()
}

// touch and requireStep must be called with s.mu held.
func (s *Session) touch() { s.lastSeen = s.deps.Now() }

func (s *Session) requireStep(op string, want Step) error {
	if cur := s.workflow.Step(); cur != want {
		return fmt.Errorf("%w: %s needs step %s, session is at %s", ErrWrongStep, op, want, cur)
	}
	return nil
}

// start runs fn as a task. It must be called with s.mu held; fn runs without it.
// A failure that is not a cancellation raises the session banner.
func (s *Session) start(parent context.Context, key TaskKey, policy BeginPolicy, fn func(ctx context.Context, t *Task) error) (*Task, error) {
	return s.tasks.Go(parent, key, policy, func(ctx context.Context, t *Task) error {
		log := s.log.With(zap.String("action", string(key.Action)), zap.Uint64("task", t.Seq()))
		if key.RowID != "" {
			log = log.With(zap.String("row", key.RowID))
		}
		began := s.deps.Now()
		log.Debug("task started")

		err := fn(ctx, t)
		took := zap.Duration("took", s.deps.Now().Sub(began))
		switch {
		case err == nil:
			log.Info("task finished", took)
		case errors.Is(err, errSuperseded), errors.Is(err, context.Canceled):
			log.Debug("task cancelled", took)
		default:
			log.Warn("task failed", took, zap.Error(err))
			s.mu.Lock()
			s.banner = &Banner{Action: key.Action, RowID: key.RowID, Message: failureReason(err), At: s.deps.Now()}
			s.mu.Unlock()
		}
		return err
	})
}

// StartUpload processes an uploaded budget and moves the session to pricing.
func (s *Session) StartUpload(ctx context.Context, up Upload) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireStep("upload", StepUpload); err != nil {
		return nil, err
	}
	return s.start(ctx, TaskKey{Action: ActionUpload}, RejectIfBusy, func(ctx context.Context, _ *Task) error {
		rows, err := s.deps.Intake.Process(ctx, up)
		if err != nil {
			return fmt.Errorf("process %s: %w", up.Name, err)
		}
		store, err := NewStore(rows)
		if err != nil {
			return fmt.Errorf("process %s: %w", up.Name, err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.workflow.CompleteUpload(); err != nil {
			return err
		}
		s.store = store
		s.fileName = up.Name
		return nil
	})
}

// StartRecompute sends the current rows to the recalculator and applies the
// result. Only one recompute runs at a time.
func (s *Session) StartRecompute(ctx context.Context) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireStep("recompute", StepPrice); err != nil {
		return nil, err
	}
	return s.startRecompute(ctx)
}

func (s *Session) startRecompute(ctx context.Context) (*Task, error) {
	store := s.store
	snap := store.Snapshot()
	return s.start(ctx, TaskKey{Action: ActionRecompute}, RejectIfBusy, func(ctx context.Context, t *Task) error {
		rows, err := s.deps.Recalculator.Recalculate(ctx, snap.Rows)
		if err != nil {
			return fmt.Errorf("recalculate: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		applied, err := store.ApplyRecalculated(snap, rows)
		if err != nil {
			return err
		}
		if skipped := len(rows) - applied; skipped > 0 {
			s.log.Debug("rows edited during recompute kept", zap.Int("skipped", skipped))
		}
		return nil
	})
}

// SetField edits one field of a line item. The row stays dirty until the
// next recompute.
func (s *Session) SetField(rowID string, field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireStep("edit", StepPrice); err != nil {
		return err
	}
	return s.store.SetField(rowID, field, value)
}

// ResetRow restores a line item to its seeded values.
func (s *Session) ResetRow(rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireStep("reset", StepPrice); err != nil {
		return err
	}
	return s.store.ResetRow(rowID)
}

// OpenCatalogue opens the replacement flow for a line item. The query is
// prefilled with the row description. Reopening discards an earlier flow.
func (s *Session) OpenCatalogue(rowID string) (SearchFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireStep("catalogue", StepPrice); err != nil {
		return SearchFlow{}, err
	}
	r, err := s.store.Row(rowID)
	if err != nil {
		return SearchFlow{}, err
	}
	li, ok := r.(LineItem)
	if !ok {
		return SearchFlow{}, fmt.Errorf("%w: %s", ErrHeaderRow, rowID)
	}

	s.tasks.Cancel(TaskKey{Action: ActionSearch, RowID: rowID})
	f := &SearchFlow{
		RowID:   rowID,
		Current: li,
		Query: SearchQuery{
			Text:      li.Description,
			Limit:     s.deps.SearchLimit,
			Threshold: s.deps.SearchThreshold,
		},
		State: SearchNotSearched,
	}
	s.flows[rowID] = f
	return f.clone(), nil
}

// Catalogue returns the open flow of a row.
func (s *Session) Catalogue(rowID string) (SearchFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[rowID]
	if !ok {
		return SearchFlow{}, fmt.Errorf("%w: %s", ErrCatalogueNotOpen, rowID)
	}
	return f.clone(), nil
}

// StartSearch runs a catalogue search for an open flow. A new search
// supersedes one still in flight for the same row.
func (s *Session) StartSearch(ctx context.Context, rowID string, q SearchQuery) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	flow, ok := s.flows[rowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCatalogueNotOpen, rowID)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	t, err := s.start(ctx, TaskKey{Action: ActionSearch, RowID: rowID}, Supersede, func(ctx context.Context, t *Task) error {
		items, err := s.deps.Searcher.Search(ctx, q)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.flows[rowID] != flow || flow.token != t.Seq() {
			return errSuperseded
		}
		if err != nil {
			flow.State = SearchFailed
			flow.Reason = failureReason(err)
			return fmt.Errorf("search catalogue: %w", err)
		}
		flow.State = SearchSearched
		flow.Results = items
		flow.Reason = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	flow.Query = q
	flow.State = SearchSearching
	flow.Results = nil
	flow.Reason = ""
	flow.token = t.Seq()
	return t, nil
}

// SelectCandidate applies a search result to the row, closes the flow and
// starts a recompute. The returned task is nil when a recompute is already
// running; the row then stays dirty until the next one.
func (s *Session) SelectCandidate(ctx context.Context, rowID, itemID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireStep("select", StepPrice); err != nil {
		return nil, err
	}
	flow, ok := s.flows[rowID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCatalogueNotOpen, rowID)
	}
	item, err := flow.candidate(itemID)
	if err != nil {
		return nil, err
	}
	if err := s.store.ApplyCatalogueSelection(rowID, item); err != nil {
		return nil, err
	}
	s.closeFlow(rowID)
	s.log.Info("catalogue item selected", zap.String("row", rowID), zap.String("item", item.ID))

	t, err := s.startRecompute(ctx)
	if errors.Is(err, ErrTaskInFlight) {
		return nil, nil
	}
	return t, err
}

// CloseCatalogue abandons the flow of a row. The row is left as it was.
func (s *Session) CloseCatalogue(rowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.closeFlow(rowID)
}

func (s *Session) closeFlow(rowID string) {
	s.tasks.Cancel(TaskKey{Action: ActionSearch, RowID: rowID})
	delete(s.flows, rowID)
}

// Proceed moves from pricing to export. It is refused while a recompute runs.
func (s *Session) Proceed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.tasks.Busy(TaskKey{Action: ActionRecompute}) {
		return fmt.Errorf("%w: %s", ErrTaskInFlight, ActionRecompute)
	}
	if err := s.workflow.Proceed(); err != nil {
		return err
	}
	for rowID := range s.flows {
		s.closeFlow(rowID)
	}
	return nil
}

// StartExport renders the priced budget. A session exports once.
func (s *Session) StartExport(ctx context.Context, format ExportFormat) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.requireStep("export", StepExport); err != nil {
		return nil, err
	}
	if s.artifact != nil {
		return nil, ErrAlreadyExported
	}

	req := ExportRequest{
		Order:    s.order,
		FileName: s.fileName,
		Rows:     s.store.Rows(),
		Format:   format,
	}
	return s.start(ctx, TaskKey{Action: ActionExport}, RejectIfBusy, func(ctx context.Context, _ *Task) error {
		art, err := s.deps.Exporter.Export(ctx, req)
		if err != nil {
			return fmt.Errorf("export %s: %w", format, err)
		}
		if art.CreatedAt.IsZero() {
			art.CreatedAt = s.deps.Now()
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.artifact = &art
		return nil
	})
}

// Artifact returns the exported file.
func (s *Session) Artifact() (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.artifact == nil {
		return Artifact{}, ErrNoArtifact
	}
	return *s.artifact, nil
}

func (s *Session) DismissBanner() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.banner = nil
}

// Task returns the state of a task slot.
func (s *Session) Task(key TaskKey) TaskState {
	return s.tasks.State(key)
}

// RowView is the rendered form of a row with its derived values.
type RowView struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`

	Label string `json:"label,omitempty"`

	Index            string           `json:"index,omitempty"`
	Supplier         string           `json:"supplier,omitempty"`
	Position         string           `json:"position,omitempty"`
	Description      string           `json:"description,omitempty"`
	Unit             string           `json:"unit,omitempty"`
	MatchProbability *float64         `json:"matchProbability,omitempty"`
	MatchBand        Band             `json:"matchBand,omitempty"`
	Discount         *decimal.Decimal `json:"discount,omitempty"`
	Quantity         *decimal.Decimal `json:"quantity,omitempty"`
	DeliveryPrice    *decimal.Decimal `json:"deliveryPrice,omitempty"`
	AssemblyPrice    *decimal.Decimal `json:"assemblyPrice,omitempty"`
	DeliveryTotal    *decimal.Decimal `json:"deliveryTotal,omitempty"`
	AssemblyTotal    *decimal.Decimal `json:"assemblyTotal,omitempty"`
	FinalPriceUnit   *decimal.Decimal `json:"finalPriceUnit,omitempty"`
	LineTotal        *decimal.Decimal `json:"lineTotal,omitempty"`
	Dirty            bool             `json:"dirty,omitempty"`
}

const (
	KindHeader = "header"
	KindItem   = "item"
)

// NewRowView renders a row. Line items carry their derived totals.
func NewRowView(r Row, dirty bool) RowView {
	switch v := r.(type) {
	case Header:
		return RowView{ID: v.ID, Kind: KindHeader, Label: v.Label}
	case LineItem:
		t := v.Totals()
		p := v.MatchProbability
		in := v.Inputs
		rv := RowView{
			ID:             v.ID,
			Kind:           KindItem,
			Index:          v.Index,
			Supplier:       v.Supplier,
			Position:       v.Position,
			Description:    v.Description,
			Unit:           v.Unit,
			Discount:       &in.Discount,
			Quantity:       &in.Quantity,
			DeliveryPrice:  &in.DeliveryPrice,
			AssemblyPrice:  &in.AssemblyPrice,
			DeliveryTotal:  &t.DeliveryTotal,
			AssemblyTotal:  &t.AssemblyTotal,
			FinalPriceUnit: &t.FinalPriceUnit,
			LineTotal:      &t.LineTotal,
			Dirty:          dirty,
		}
		if p > 0 {
			rv.MatchProbability = &p
			rv.MatchBand = MatchBand(p)
		}
		return rv
	}
	return RowView{ID: r.RowID()}
}

// SessionView is a consistent snapshot of a session.
type SessionView struct {
	ID         string               `json:"id"`
	Order      *Order               `json:"order,omitempty"`
	Step       Step                 `json:"step"`
	StepName   string               `json:"stepName"`
	FileName   string               `json:"fileName,omitempty"`
	Rows       []RowView            `json:"rows"`
	DirtyRows  int                  `json:"dirtyRows"`
	GrandTotal decimal.Decimal      `json:"grandTotal"`
	Tasks      map[string]TaskState `json:"tasks"`
	Catalogue  []string             `json:"catalogue,omitempty"`
	Banner     *Banner              `json:"banner,omitempty"`
	Exported   bool                 `json:"exported"`
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	v := SessionView{
		ID:         s.id,
		Order:      s.order,
		Step:       s.workflow.Step(),
		StepName:   s.workflow.Step().String(),
		FileName:   s.fileName,
		Rows:       []RowView{},
		GrandTotal: decimal.Zero,
		Tasks:      make(map[string]TaskState),
		Banner:     s.banner,
		Exported:   s.artifact != nil,
	}
	if s.store != nil {
		rows := s.store.Rows()
		v.Rows = make([]RowView, 0, len(rows))
		for _, r := range rows {
			v.Rows = append(v.Rows, NewRowView(r, s.store.Dirty(r.RowID())))
		}
		v.DirtyRows = s.store.DirtyCount()
		v.GrandTotal = GrandTotal(rows)
	}
	for _, ks := range s.tasks.States() {
		v.Tasks[ks.Key.String()] = ks.State
	}
	for _, rv := range v.Rows {
		if _, open := s.flows[rv.ID]; open {
			v.Catalogue = append(v.Catalogue, rv.ID)
		}
	}
	return v
}
