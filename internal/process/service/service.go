// Package service implements the process lifecycle engine: it validates and
// applies status changes, maintains the single active status record, keeps
// the append-only audit trail, regenerates checklists, auto-spawns
// follow-up tasks, propagates group-shared fields and enforces tenant
// scoping.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"tramita/internal/activity"
	"tramita/internal/notify"
	"tramita/internal/process/metrics"
	"tramita/internal/process/models"
	"tramita/internal/process/transition"
	id "tramita/pkg/domain"
	"tramita/pkg/platform/tx"
)

// ProcessStore persists individual processes.
type ProcessStore interface {
	Insert(ctx context.Context, p *models.IndividualProcess) error
	FindByID(ctx context.Context, processID id.ProcessID) (*models.IndividualProcess, error)
	Update(ctx context.Context, p *models.IndividualProcess) error
	Delete(ctx context.Context, processID id.ProcessID) error
	List(ctx context.Context, filter ListFilter) ([]*models.IndividualProcess, error)
	ListByGroup(ctx context.Context, groupID id.GroupID) ([]*models.IndividualProcess, error)
}

// StatusRecordStore persists historical status assignments.
type StatusRecordStore interface {
	Insert(ctx context.Context, r *models.ProcessStatusRecord) error
	Update(ctx context.Context, r *models.ProcessStatusRecord) error
	ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.ProcessStatusRecord, error)
	ListActiveByProcess(ctx context.Context, processID id.ProcessID) ([]*models.ProcessStatusRecord, error)
	DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error)
}

// HistoryStore persists the append-only audit trail.
type HistoryStore interface {
	Append(ctx context.Context, e *models.HistoryEntry) error
	ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.HistoryEntry, error)
	DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error)
}

// ChecklistStore persists required-document checklist entries.
type ChecklistStore interface {
	Insert(ctx context.Context, e *models.ChecklistEntry) error
	ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.ChecklistEntry, error)
	DeleteNotStarted(ctx context.Context, processID id.ProcessID) (int, error)
	DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error)
}

// TaskStore persists follow-up work items.
type TaskStore interface {
	Insert(ctx context.Context, t *models.Task) error
	FindByID(ctx context.Context, taskID id.TaskID) (*models.Task, error)
	Update(ctx context.Context, t *models.Task) error
	ListByProcess(ctx context.Context, processID id.ProcessID) ([]*models.Task, error)
	DeleteByProcess(ctx context.Context, processID id.ProcessID) (int, error)
}

// CaseStatusStore reads workflow status reference data.
type CaseStatusStore interface {
	FindByID(ctx context.Context, statusID id.CaseStatusID) (*models.CaseStatus, error)
	FindByCode(ctx context.Context, code string) (*models.CaseStatus, error)
}

// TemplateStore reads document template reference data.
type TemplateStore interface {
	ListByAuthType(ctx context.Context, authTypeID id.AuthorizationTypeID) ([]*models.DocumentTemplate, error)
}

// GroupStore reads collective process records.
type GroupStore interface {
	FindByID(ctx context.Context, groupID id.GroupID) (*models.Group, error)
}

// AuthTypeStore reads authorization type reference data.
type AuthTypeStore interface {
	FindByID(ctx context.Context, authTypeID id.AuthorizationTypeID) (*models.AuthorizationType, error)
}

// UserStore reads the user directory for notification fan-out.
type UserStore interface {
	ListByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.User, error)
}

// Stores bundles every store the engine depends on.
type Stores struct {
	Processes     ProcessStore
	StatusRecords StatusRecordStore
	History       HistoryStore
	Checklist     ChecklistStore
	Tasks         TaskStore
	CaseStatuses  CaseStatusStore
	Templates     TemplateStore
	Groups        GroupStore
	AuthTypes     AuthTypeStore
	Users         UserStore
}

// Engine orchestrates the case lifecycle. Each public operation runs as one
// atomic unit via the tx runner; activity and notification sinks are
// best-effort and never abort an operation.
type Engine struct {
	stores      Stores
	transitions *transition.Table
	taskRules   TaskRules
	activity    *activity.Publisher
	notifier    notify.Dispatcher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	tx          tx.Runner
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithActivityPublisher(p *activity.Publisher) Option {
	return func(e *Engine) { e.activity = p }
}

func WithNotifier(d notify.Dispatcher) Option {
	return func(e *Engine) { e.notifier = d }
}

func WithTransitionTable(t *transition.Table) Option {
	return func(e *Engine) { e.transitions = t }
}

func WithTaskRules(r TaskRules) Option {
	return func(e *Engine) { e.taskRules = r }
}

func WithTxRunner(r tx.Runner) Option {
	return func(e *Engine) { e.tx = r }
}

// New constructs an Engine. Defaults: production transition table and task
// rules, pass-through tx runner, no-op notifier, slog default logger.
func New(stores Stores, opts ...Option) *Engine {
	e := &Engine{
		stores:      stores,
		transitions: transition.Default(),
		taskRules:   DefaultTaskRules(),
		notifier:    notify.NoopDispatcher{},
		logger:      slog.Default(),
		tracer:      otel.Tracer("tramita/process"),
		tx:          tx.PassthroughRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// emitActivity is the best-effort degradation boundary for the activity
// log: no publisher configured means no-op, and the publisher itself never
// fails the caller.
func (e *Engine) emitActivity(ctx context.Context, event activity.Event) {
	if e.activity == nil {
		return
	}
	e.activity.Emit(ctx, event)
}
