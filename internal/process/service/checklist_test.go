package service_test

import (
	"github.com/google/uuid"

	"tramita/internal/process/models"
	"tramita/internal/process/service"
	id "tramita/pkg/domain"
)

func (s *EngineSuite) TestRegenerateReplacesUntouchedEntries() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID, AuthTypeID: s.authTypeID})

	result, err := s.engine.RegenerateChecklist(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(2, result.DeletedCount)
	s.Equal(2, result.CreatedCount)

	entries, err := s.checklist.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Len(entries, 2)
}

func (s *EngineSuite) TestRegeneratePreservesUploadedDocuments() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID, AuthTypeID: s.authTypeID})

	entries, err := s.checklist.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	// Someone uploaded the passport.
	var uploaded *models.ChecklistEntry
	for _, e := range entries {
		if e.DocumentType == "passport" {
			uploaded = e
		}
	}
	s.Require().NotNil(uploaded)
	uploaded.Status = models.ChecklistUploaded
	s.Require().NoError(s.checklist.Update(s.ctx(), uploaded))

	result, err := s.engine.RegenerateChecklist(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(1, result.DeletedCount, "only the untouched entry is discarded")
	s.Equal(1, result.CreatedCount, "the uploaded document type is not recreated")

	after, err := s.checklist.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(after, 2)
	byType := map[string]models.ChecklistStatus{}
	for _, e := range after {
		byType[e.DocumentType] = e.Status
	}
	s.Equal(models.ChecklistUploaded, byType["passport"])
	s.Equal(models.ChecklistNotStarted, byType["work_contract"])
}

func (s *EngineSuite) TestRegenerateWithoutTemplateDeletesOnly() {
	processID := s.createCase(service.CreateRequest{GroupID: s.groupID})

	result, err := s.engine.RegenerateChecklist(s.ctx(), s.admin, processID)
	s.Require().NoError(err)
	s.Equal(0, result.DeletedCount)
	s.Equal(0, result.CreatedCount)
}

func (s *EngineSuite) TestRegeneratePicksHighestActiveVersion() {
	s.templates.Seed(
		&models.DocumentTemplate{
			ID:         id.TemplateID(uuid.New()),
			AuthTypeID: s.authTypeID,
			Version:    3,
			Active:     true,
			Requirements: []models.DocumentRequirement{
				{DocumentType: "passport", Name: "Passaporte", Required: true},
				{DocumentType: "criminal_record", Name: "Antecedentes criminais", Required: true},
				{DocumentType: "work_contract", Name: "Contrato de trabalho", Required: true},
			},
		},
		&models.DocumentTemplate{
			ID:           id.TemplateID(uuid.New()),
			AuthTypeID:   s.authTypeID,
			Version:      9,
			Active:       false,
			Requirements: []models.DocumentRequirement{{DocumentType: "obsolete", Name: "Obsoleto", Required: true}},
		},
	)

	processID := s.createCase(service.CreateRequest{GroupID: s.groupID, AuthTypeID: s.authTypeID})

	entries, err := s.checklist.ListByProcess(s.ctx(), processID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	for _, e := range entries {
		s.Equal(3, e.TemplateVersion, "inactive templates are ignored regardless of version")
	}
}
