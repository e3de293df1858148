package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tramita/internal/activity"
	"tramita/internal/notify"
	"tramita/internal/process/models"
	"tramita/internal/process/service"
	"tramita/internal/process/store/memory"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/requestcontext"
)

type EngineSuite struct {
	suite.Suite

	processes     *memory.ProcessStore
	statusRecords *memory.StatusRecordStore
	history       *memory.HistoryStore
	checklist     *memory.ChecklistStore
	tasks         *memory.TaskStore
	caseStatuses  *memory.CaseStatusStore
	templates     *memory.TemplateStore
	groups        *memory.GroupStore
	authTypes     *memory.AuthTypeStore
	users         *memory.UserStore

	activityStore *activity.InMemoryStore
	notifier      *notify.MemoryDispatcher
	engine        *service.Engine

	statuses map[string]*models.CaseStatus
	admin    requestcontext.Caller
	userIDs  []id.UserID

	companyID  id.CompanyID
	groupID    id.GroupID
	authTypeID id.AuthorizationTypeID
	now        time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.processes = memory.NewProcessStore()
	s.statusRecords = memory.NewStatusRecordStore()
	s.history = memory.NewHistoryStore()
	s.checklist = memory.NewChecklistStore()
	s.tasks = memory.NewTaskStore()
	s.caseStatuses = memory.NewCaseStatusStore()
	s.templates = memory.NewTemplateStore()
	s.groups = memory.NewGroupStore()
	s.authTypes = memory.NewAuthTypeStore()
	s.users = memory.NewUserStore()

	s.statuses = map[string]*models.CaseStatus{}
	for code, name := range map[string]string{
		models.StatusCodePreparation:  "Em preparação",
		models.StatusCodeAwaitingDocs: "Aguardando documentos",
		models.StatusCodeFiled:        "Protocolado",
		models.StatusCodeUnderReview:  "Em análise",
		models.StatusCodeRequirement:  "Exigência",
		models.StatusCodeApproved:     "Deferido",
		models.StatusCodeDenied:       "Indeferido",
		models.StatusCodeArchived:     "Arquivado",
	} {
		status := &models.CaseStatus{ID: id.CaseStatusID(uuid.New()), Code: code, Name: name}
		s.statuses[code] = status
		s.caseStatuses.Seed(status)
	}

	s.companyID = id.CompanyID(uuid.New())
	s.groupID = id.GroupID(uuid.New())
	s.authTypeID = id.AuthorizationTypeID(uuid.New())
	s.authTypes.Seed(&models.AuthorizationType{
		ID:            s.authTypeID,
		Code:          "residencia_previa",
		Name:          "Residência Prévia",
		EstimatedDays: 60,
	})
	s.groups.Seed(&models.Group{ID: s.groupID, CompanyID: s.companyID, Name: "Lote 2026-01"})
	s.templates.Seed(&models.DocumentTemplate{
		ID:         id.TemplateID(uuid.New()),
		AuthTypeID: s.authTypeID,
		Version:    2,
		Active:     true,
		Requirements: []models.DocumentRequirement{
			{DocumentType: "passport", Name: "Passaporte", Required: true},
			{DocumentType: "work_contract", Name: "Contrato de trabalho", Required: true},
			{DocumentType: "photo", Name: "Foto 3x4", Required: false},
		},
	})
	s.userIDs = []id.UserID{id.UserID(uuid.New()), id.UserID(uuid.New())}
	s.users.Seed(
		&models.User{ID: s.userIDs[0], CompanyID: s.companyID, Role: "client", Email: "rh@acme.test", Name: "RH"},
		&models.User{ID: s.userIDs[1], CompanyID: s.companyID, Role: "client", Email: "ops@acme.test", Name: "Ops"},
	)

	s.activityStore = activity.NewInMemoryStore()
	s.notifier = notify.NewMemoryDispatcher()
	s.admin = requestcontext.Caller{ActorID: id.UserID(uuid.New()), Role: requestcontext.RoleAdmin}
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	s.engine = service.New(service.Stores{
		Processes:     s.processes,
		StatusRecords: s.statusRecords,
		History:       s.history,
		Checklist:     s.checklist,
		Tasks:         s.tasks,
		CaseStatuses:  s.caseStatuses,
		Templates:     s.templates,
		Groups:        s.groups,
		AuthTypes:     s.authTypes,
		Users:         s.users,
	},
		service.WithActivityPublisher(activity.NewPublisher(s.activityStore)),
		service.WithNotifier(s.notifier),
	)
}

func (s *EngineSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), s.now)
}

func (s *EngineSuite) client(company id.CompanyID) requestcontext.Caller {
	return requestcontext.Caller{ActorID: id.UserID(uuid.New()), Role: requestcontext.RoleClient, CompanyID: company}
}

func (s *EngineSuite) createCase(req service.CreateRequest) id.ProcessID {
	s.T().Helper()
	if req.PersonID.IsNil() {
		req.PersonID = id.PersonID(uuid.New())
	}
	processID, err := s.engine.Create(s.ctx(), s.admin, req)
	s.Require().NoError(err)
	return processID
}

// moveTo walks a case through a sequence of status codes.
func (s *EngineSuite) moveTo(processID id.ProcessID, codes ...string) {
	s.T().Helper()
	for _, code := range codes {
		statusID := s.statuses[code].ID
		_, err := s.engine.Update(s.ctx(), s.admin, processID, service.UpdateRequest{StatusID: &statusID})
		s.Require().NoError(err)
	}
}

func (s *EngineSuite) TestCreateDefaultsToPreparation() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID, AuthTypeID: s.authTypeID})

	p, err := s.engine.Get(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(models.StatusCodePreparation, p.StatusCode)
	s.Equal("Em preparação", p.StatusName)
	s.Equal(models.PhaseCurrent, p.Phase)
	s.Equal(s.companyID, p.CompanyID)
	s.Nil(p.CompletedAt)

	entries, err := s.checklist.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(entries, 2, "only required documents become checklist entries")

	trail, err := s.history.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(trail, 1)
	s.Empty(trail[0].PreviousStatus)
	s.Equal("Em preparação", trail[0].NewStatus)

	active, err := s.statusRecords.ListActiveByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Contains(active[0].Note, "Initial status")
}

func (s *EngineSuite) TestCreateFailsWithoutDefaultStatus() {
	empty := memory.NewCaseStatusStore()
	engine := service.New(service.Stores{
		Processes:     s.processes,
		StatusRecords: s.statusRecords,
		History:       s.history,
		Checklist:     s.checklist,
		Tasks:         s.tasks,
		CaseStatuses:  empty,
		Templates:     s.templates,
		Groups:        s.groups,
		AuthTypes:     s.authTypes,
		Users:         s.users,
	})

	_, err := engine.Create(s.ctx(), s.admin, service.CreateRequest{PersonID: id.PersonID(uuid.New())})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}

func (s *EngineSuite) TestCreateRejectsNonAdmin() {
	_, err := s.engine.Create(s.ctx(), s.client(s.companyID), service.CreateRequest{PersonID: id.PersonID(uuid.New())})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *EngineSuite) TestCreateRejectsAnonymous() {
	_, err := s.engine.Create(s.ctx(), requestcontext.Caller{Role: requestcontext.RoleAdmin}, service.CreateRequest{
		PersonID: id.PersonID(uuid.New()),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *EngineSuite) TestUpdateAppliesValidTransition() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	s.moveTo(processID, models.StatusCodeAwaitingDocs)

	p, err := s.engine.Get(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(models.StatusCodeAwaitingDocs, p.StatusCode)

	active, err := s.statusRecords.ListActiveByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(active, 1, "exactly one active status record after a transition")

	all, err := s.statusRecords.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(all, 2, "old records are deactivated, never deleted")

	trail, err := s.history.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(trail, 2)
	s.Equal("Em preparação", trail[1].PreviousStatus)
	s.Equal("Aguardando documentos", trail[1].NewStatus)
}

func (s *EngineSuite) TestUpdateRejectsInvalidTransition() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	statusID := s.statuses[models.StatusCodeApproved].ID
	_, err := s.engine.Update(s.ctx(), s.admin, processID, service.UpdateRequest{StatusID: &statusID})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Contains(dErrors.MessageOf(err), "Invalid status transition")

	// Nothing was written.
	all, err := s.statusRecords.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(all, 1)
	p, err := s.engine.Get(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(models.StatusCodePreparation, p.StatusCode)
}

func (s *EngineSuite) TestSelfTransitionAllowed() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})
	s.moveTo(processID, models.StatusCodePreparation)

	p, err := s.engine.Get(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(models.StatusCodePreparation, p.StatusCode)
}

func (s *EngineSuite) TestUpdatePatchesFieldsWithoutStatus() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	protocol := "BR-2026-001"
	urgent := true
	_, err := s.engine.Update(s.ctx(), s.admin, processID, service.UpdateRequest{
		ProtocolNumber: &protocol,
		Urgent:         &urgent,
	})
	s.Require().NoError(err)

	p, err := s.engine.Get(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal("BR-2026-001", p.ProtocolNumber)
	s.True(p.Urgent)
	s.Equal(models.StatusCodePreparation, p.StatusCode, "no transition requested, none applied")
}

func (s *EngineSuite) TestCompletedAtStampedOnceOnApproval() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	s.moveTo(processID, models.StatusCodeFiled, models.StatusCodeUnderReview, models.StatusCodeApproved)

	p, err := s.engine.Get(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Require().NotNil(p.CompletedAt)
	firstCompletion := *p.CompletedAt
	s.Equal(s.now, firstCompletion)

	// Reopen and approve again; the stamp must not move.
	s.now = s.now.Add(48 * time.Hour)
	s.moveTo(processID, models.StatusCodeUnderReview, models.StatusCodeApproved)

	p, err = s.engine.Get(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Require().NotNil(p.CompletedAt)
	s.Equal(firstCompletion, *p.CompletedAt)
}

func (s *EngineSuite) TestStatusChangeAutoGeneratesTasks() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID, AuthTypeID: s.authTypeID})

	s.moveTo(processID, models.StatusCodeFiled)

	tasks, err := s.tasks.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal(models.TaskTodo, tasks[0].Status)
	s.Equal(s.now.AddDate(0, 0, 60), tasks[0].DueDate, "due date anchors at estimated processing days")

	// A code with no rule spawns nothing.
	s.moveTo(processID, models.StatusCodeUnderReview)
	tasks, err = s.tasks.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(tasks, 1)
}

func (s *EngineSuite) TestStatusChangeNotifiesCompanyUsers() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	s.moveTo(processID, models.StatusCodeAwaitingDocs)

	sent := s.notifier.Sent()
	s.Require().Len(sent, 2, "one notice per company user")
	var recipients []id.UserID
	for _, n := range sent {
		recipients = append(recipients, n.UserID)
		s.Equal(s.companyID, n.CompanyID)
		s.Equal(processID, n.ProcessID)
		s.Contains(n.Body, "Aguardando documentos")
	}
	s.ElementsMatch(s.userIDs, recipients)
}

func (s *EngineSuite) TestRemoveCascades() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID, AuthTypeID: s.authTypeID})
	s.moveTo(processID, models.StatusCodeFiled)

	removed, err := s.engine.Remove(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(processID, removed)

	_, err = s.engine.Get(s.ctx(), s.admin, processID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	entries, _ := s.checklist.ListByProcess(s.ctx(), processID)
	s.Empty(entries)
	records, _ := s.statusRecords.ListByProcess(s.ctx(), processID)
	s.Empty(records)
	trail, _ := s.history.ListByProcess(s.ctx(), processID)
	s.Empty(trail)
	tasks, _ := s.tasks.ListByProcess(s.ctx(), processID)
	s.Empty(tasks)
}

func (s *EngineSuite) TestCloneStartsFreshRound() {
	personID := id.PersonID(uuid.New())
	applicant := id.CompanyID(uuid.New())
	sourceID := s.createCase(service.CreateRequest{
		PersonID:           personID,
		GroupID:            s.groupID,
		CompanyApplicantID: applicant,
		AuthTypeID:         s.authTypeID,
		ProtocolNumber:     "BR-2025-042",
	})
	s.moveTo(sourceID, models.StatusCodeFiled, models.StatusCodeUnderReview, models.StatusCodeDenied)

	newID, err := s.engine.CreateFromExisting(s.ctx(), s.admin, sourceID)
	s.Require().NoError(err)
	s.NotEqual(sourceID, newID)

	fresh, err := s.engine.Get(s.ctx(), s.admin, newID)
	s.Require().NoError(err)
	s.Equal(personID, fresh.PersonID)
	s.Equal(applicant, fresh.CompanyApplicantID)
	s.Equal(models.StatusCodePreparation, fresh.StatusCode)
	s.Equal(models.PhaseCurrent, fresh.Phase)
	s.Empty(fresh.ProtocolNumber, "case-specific fields are not cloned")
	s.True(fresh.AuthTypeID.IsNil(), "authorization type is not cloned")

	source, err := s.engine.Get(s.ctx(), s.admin, sourceID)
	s.Require().NoError(err)
	s.Equal(models.PhasePrevious, source.Phase)
	s.False(source.IsActive)
	s.Equal(models.StatusCodeDenied, source.StatusCode, "workflow status is untouched by supersede")

	freshTrail, err := s.history.ListByProcess(s.ctx(), newID)
	s.Require().NoError(err)
	s.Len(freshTrail, 1)
	sourceTrail, err := s.history.ListByProcess(s.ctx(), sourceID)
	s.Require().NoError(err)
	s.Len(sourceTrail, 5, "source keeps its own trail plus the supersede entry")
}

func (s *EngineSuite) TestBulkUpdatePartialFailure() {
	okID := s.createCase(service.CreateRequest{GroupID: s.groupID})
	stuckID := s.createCase(service.CreateRequest{GroupID: s.groupID})
	s.moveTo(stuckID, models.StatusCodeFiled, models.StatusCodeUnderReview, models.StatusCodeApproved)

	result, err := s.engine.BulkUpdateStatus(s.ctx(), s.admin,
		[]id.ProcessID{okID, stuckID}, models.StatusCodeAwaitingDocs, "document round")
	s.Require().NoError(err)

	s.Equal(2, result.TotalProcessed)
	s.Equal([]id.ProcessID{okID}, result.Successful)
	s.Require().Len(result.Failed, 1)
	s.Equal(stuckID, result.Failed[0].ID)
	s.Contains(result.Failed[0].Reason, "Invalid status transition")

	moved, err := s.engine.Get(s.ctx(), s.admin, okID)
	s.Require().NoError(err)
	s.Equal(models.StatusCodeAwaitingDocs, moved.StatusCode)
	stuck, err := s.engine.Get(s.ctx(), s.admin, stuckID)
	s.Require().NoError(err)
	s.Equal(models.StatusCodeApproved, stuck.StatusCode)
}

func (s *EngineSuite) TestBulkUpdateUnknownStatusAbortsBatch() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	_, err := s.engine.BulkUpdateStatus(s.ctx(), s.admin, []id.ProcessID{processID}, "nonexistent", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestCommonNextStatuses() {
	first := s.createCase(service.CreateRequest{GroupID: s.groupID})
	second := s.createCase(service.CreateRequest{GroupID: s.groupID})
	s.moveTo(second, models.StatusCodeAwaitingDocs)

	statuses, err := s.engine.CommonNextStatuses(s.ctx(), s.admin, []id.ProcessID{first, second})
	s.Require().NoError(err)
	// em_preparacao moves to {aguardando_documentos, protocolado, arquivado};
	// aguardando_documentos moves to {em_preparacao, protocolado, arquivado}.
	// Current codes are not preview options, so neither survives the
	// intersection.
	s.ElementsMatch([]string{models.StatusCodeFiled, models.StatusCodeArchived}, statuses)
}

func (s *EngineSuite) TestCommonNextStatusesExcludesCurrentCode() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	statuses, err := s.engine.CommonNextStatuses(s.ctx(), s.admin, []id.ProcessID{processID})
	s.Require().NoError(err)
	s.NotContains(statuses, models.StatusCodePreparation, "the no-op self transition is not a preview option")
	s.ElementsMatch([]string{
		models.StatusCodeAwaitingDocs,
		models.StatusCodeFiled,
		models.StatusCodeArchived,
	}, statuses)
}

func (s *EngineSuite) TestListScopesClientsToTheirCompany() {
	otherCompany := id.CompanyID(uuid.New())
	otherGroup := id.GroupID(uuid.New())
	s.groups.Seed(&models.Group{ID: otherGroup, CompanyID: otherCompany, Name: "Outro lote"})

	mine := s.createCase(service.CreateRequest{GroupID: s.groupID})
	s.createCase(service.CreateRequest{GroupID: otherGroup})
	s.createCase(service.CreateRequest{}) // ungrouped

	visible, err := s.engine.List(s.ctx(), s.client(s.companyID), service.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(visible, 1)
	s.Equal(mine, visible[0].ID)

	all, err := s.engine.List(s.ctx(), s.admin, service.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)
}

type unavailableGroupStore struct{}

func (unavailableGroupStore) FindByID(context.Context, id.GroupID) (*models.Group, error) {
	return nil, errors.New("group store unavailable")
}

func (s *EngineSuite) TestListFailsWhenGroupLookupFails() {
	s.createCase(service.CreateRequest{GroupID: s.groupID})

	broken := service.New(service.Stores{
		Processes:     s.processes,
		StatusRecords: s.statusRecords,
		History:       s.history,
		Checklist:     s.checklist,
		Tasks:         s.tasks,
		CaseStatuses:  s.caseStatuses,
		Templates:     s.templates,
		Groups:        unavailableGroupStore{},
		AuthTypes:     s.authTypes,
		Users:         s.users,
	})

	// A transient lookup failure must surface, not silently hide cases.
	_, err := broken.List(s.ctx(), s.client(s.companyID), service.ListFilter{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = broken.List(s.ctx(), s.admin, service.ListFilter{})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *EngineSuite) TestGetDeniesForeignClient() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	_, err := s.engine.Get(s.ctx(), s.client(id.CompanyID(uuid.New())), processID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *EngineSuite) TestClientWithoutCompanyIsConfigurationError() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	_, err := s.engine.Get(s.ctx(), s.client(id.CompanyID{}), processID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConfiguration))
}

func (s *EngineSuite) TestActiveStatusRepairedOnTransition() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	// Corrupt the store with a second active record.
	rogue := &models.ProcessStatusRecord{
		ID:            id.StatusRecordID(uuid.New()),
		ProcessID:     processID,
		StatusID:      s.statuses[models.StatusCodeArchived].ID,
		IsActive:      true,
		EffectiveDate: s.now,
		ActorID:       s.admin.ActorID,
		CreatedAt:     s.now,
	}
	s.Require().NoError(s.statusRecords.Insert(s.ctx(), rogue))

	s.moveTo(processID, models.StatusCodeAwaitingDocs)

	active, err := s.statusRecords.ListActiveByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(active, 1, "corrupted multi-active state is repaired, not reported")
}

func (s *EngineSuite) TestActivityTrailRecorded() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})
	s.moveTo(processID, models.StatusCodeAwaitingDocs)

	events, err := s.activityStore.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)

	var actions []activity.Action
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, activity.ActionProcessCreated)
	s.Contains(actions, activity.ActionStatusChanged)
}
