package service_test

import (
	"github.com/google/uuid"

	"tramita/internal/process/models"
	"tramita/internal/process/service"
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
)

func (s *EngineSuite) TestSyncUrgencyFansOut() {
	first := s.createCase(service.CreateRequest{GroupID: s.groupID})
	second := s.createCase(service.CreateRequest{GroupID: s.groupID})
	outside := s.createCase(service.CreateRequest{})

	count, err := s.engine.SyncUrgency(s.ctx(), s.admin, first, true)
	s.Require().NoError(err)
	s.Equal(2, count)

	for _, processID := range []id.ProcessID{first, second} {
		p, err := s.engine.Get(s.ctx(), s.admin, processID)
		s.Require().NoError(err)
		s.True(p.Urgent)
	}
	p, err := s.engine.Get(s.ctx(), s.admin, outside)
	s.Require().NoError(err)
	s.False(p.Urgent, "cases outside the group are untouched")
}

func (s *EngineSuite) TestSyncUrgencyUngroupedTouchesOnlySource() {
	alone := s.createCase(service.CreateRequest{})
	bystander := s.createCase(service.CreateRequest{GroupID: s.groupID})

	count, err := s.engine.SyncUrgency(s.ctx(), s.admin, alone, true)
	s.Require().NoError(err)
	s.Equal(1, count)

	p, err := s.engine.Get(s.ctx(), s.admin, alone)
	s.Require().NoError(err)
	s.True(p.Urgent)
	other, err := s.engine.Get(s.ctx(), s.admin, bystander)
	s.Require().NoError(err)
	s.False(other.Urgent)
}

func (s *EngineSuite) TestSyncAuthorizationSharesOneDeadline() {
	first := s.createCase(service.CreateRequest{GroupID: s.groupID})
	second := s.createCase(service.CreateRequest{GroupID: s.groupID})

	count, err := s.engine.SyncAuthorization(s.ctx(), s.admin, first, s.authTypeID,
		service.DeadlineSpec{Unit: "years", Quantity: 2})
	s.Require().NoError(err)
	s.Equal(2, count)

	want := s.now.AddDate(2, 0, 0)
	for _, processID := range []id.ProcessID{first, second} {
		p, err := s.engine.Get(s.ctx(), s.admin, processID)
		s.Require().NoError(err)
		s.Equal(s.authTypeID, p.AuthTypeID)
		s.Require().NotNil(p.Deadline)
		s.Equal(want, *p.Deadline, "every sibling lands on the identical instant")
	}
}

func (s *EngineSuite) TestSyncAuthorizationUngroupedCase() {
	alone := s.createCase(service.CreateRequest{})

	count, err := s.engine.SyncAuthorization(s.ctx(), s.admin, alone, s.authTypeID,
		service.DeadlineSpec{Unit: "days", Quantity: 30})
	s.Require().NoError(err)
	s.Equal(1, count)

	p, err := s.engine.Get(s.ctx(), s.admin, alone)
	s.Require().NoError(err)
	s.Equal(s.authTypeID, p.AuthTypeID)
	s.Require().NotNil(p.Deadline)
	s.Equal(s.now.AddDate(0, 0, 30), *p.Deadline)
}

func (s *EngineSuite) TestSyncAuthorizationRejectsUnknownUnit() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	_, err := s.engine.SyncAuthorization(s.ctx(), s.admin, processID, s.authTypeID,
		service.DeadlineSpec{Unit: "fortnights", Quantity: 1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *EngineSuite) TestSyncAuthorizationRejectsUnknownType() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	_, err := s.engine.SyncAuthorization(s.ctx(), s.admin, processID,
		id.AuthorizationTypeID(uuid.New()), service.DeadlineSpec{Unit: "days", Quantity: 30})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestSyncUrgencyUnknownCase() {
	_, err := s.engine.SyncUrgency(s.ctx(), s.admin, id.ProcessID(uuid.New()), true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *EngineSuite) TestSyncDeniedForForeignClient() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	_, err := s.engine.SyncUrgency(s.ctx(), s.client(id.CompanyID(uuid.New())), processID, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *EngineSuite) TestSyncMonthsAndDaysUnits() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	_, err := s.engine.SyncAuthorization(s.ctx(), s.admin, processID, s.authTypeID,
		service.DeadlineSpec{Unit: "months", Quantity: 6})
	s.Require().NoError(err)

	processes, err := s.processes.ListByGroup(s.ctx(), s.groupID)
	s.Require().NoError(err)
	s.Require().NotEmpty(processes)
	s.Equal(s.now.AddDate(0, 6, 0), *processes[0].Deadline)

	_, err = s.engine.SyncAuthorization(s.ctx(), s.admin, processID, s.authTypeID,
		service.DeadlineSpec{Unit: "days", Quantity: 90})
	s.Require().NoError(err)

	processes, err = s.processes.ListByGroup(s.ctx(), s.groupID)
	s.Require().NoError(err)
	s.Equal(s.now.AddDate(0, 0, 90), *processes[0].Deadline)
}

// seedTypedGroup registers a group that carries its own authorization type.
func (s *EngineSuite) seedTypedGroup() id.GroupID {
	s.T().Helper()
	typedGroup := id.GroupID(uuid.New())
	s.groups.Seed(&models.Group{
		ID:         typedGroup,
		CompanyID:  s.companyID,
		AuthTypeID: s.authTypeID,
		Name:       "Lote com tipo",
	})
	return typedGroup
}

func (s *EngineSuite) TestGroupAuthorizationTypeDrivesChecklist() {
	typedGroup := s.seedTypedGroup()

	processID := s.createCase(service.CreateRequest{GroupID: typedGroup})

	entries, err := s.checklist.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(entries, 2, "the group's authorization type selects the template")
}

func (s *EngineSuite) TestGroupAuthorizationTypeDrivesTaskDueDates() {
	typedGroup := s.seedTypedGroup()

	processID := s.createCase(service.CreateRequest{GroupID: typedGroup})
	s.moveTo(processID, models.StatusCodeFiled)

	tasks, err := s.tasks.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal(s.now.AddDate(0, 0, 60), tasks[0].DueDate,
		"due date anchors at the estimate of the group's authorization type")
}
