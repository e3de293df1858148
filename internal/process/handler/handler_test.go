package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tramita/internal/process/handler"
	"tramita/internal/process/models"
	"tramita/internal/process/service"
	"tramita/internal/process/store/memory"
	id "tramita/pkg/domain"
	"tramita/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite

	router       chi.Router
	caseStatuses *memory.CaseStatusStore
	groups       *memory.GroupStore

	statuses  map[string]*models.CaseStatus
	companyID id.CompanyID
	groupID   id.GroupID
	admin     requestcontext.Caller
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.caseStatuses = memory.NewCaseStatusStore()
	s.groups = memory.NewGroupStore()

	s.statuses = map[string]*models.CaseStatus{}
	for code, name := range map[string]string{
		models.StatusCodePreparation:  "Em preparação",
		models.StatusCodeAwaitingDocs: "Aguardando documentos",
		models.StatusCodeApproved:     "Deferido",
	} {
		status := &models.CaseStatus{ID: id.CaseStatusID(uuid.New()), Code: code, Name: name}
		s.statuses[code] = status
		s.caseStatuses.Seed(status)
	}

	s.companyID = id.CompanyID(uuid.New())
	s.groupID = id.GroupID(uuid.New())
	s.groups.Seed(&models.Group{ID: s.groupID, CompanyID: s.companyID, Name: "Lote"})
	s.admin = requestcontext.Caller{ActorID: id.UserID(uuid.New()), Role: requestcontext.RoleAdmin}

	engine := service.New(service.Stores{
		Processes:     memory.NewProcessStore(),
		StatusRecords: memory.NewStatusRecordStore(),
		History:       memory.NewHistoryStore(),
		Checklist:     memory.NewChecklistStore(),
		Tasks:         memory.NewTaskStore(),
		CaseStatuses:  s.caseStatuses,
		Templates:     memory.NewTemplateStore(),
		Groups:        s.groups,
		AuthTypes:     memory.NewAuthTypeStore(),
		Users:         memory.NewUserStore(),
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	handler.New(engine, logger).Routes(s.router)
}

// do performs a request with the given caller injected, the way the
// authentication middleware would.
func (s *HandlerSuite) do(caller *requestcontext.Caller, method, path string, body any) *httptest.ResponseRecorder {
	s.T().Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if caller != nil {
		req = req.WithContext(requestcontext.WithCaller(req.Context(), *caller))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) createCase() id.ProcessID {
	s.T().Helper()
	rec := s.do(&s.admin, http.MethodPost, "/processes", map[string]any{
		"person_id": uuid.NewString(),
		"group_id":  s.groupID.String(),
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID id.ProcessID `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func (s *HandlerSuite) TestCreateAndGet() {
	processID := s.createCase()

	rec := s.do(&s.admin, http.MethodGet, "/processes/"+processID.String(), nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var p struct {
		StatusCode string `json:"status_code"`
		StatusName string `json:"status_name"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &p))
	s.Equal(models.StatusCodePreparation, p.StatusCode)
	s.Equal("Em preparação", p.StatusName)
}

func (s *HandlerSuite) TestMissingCallerIsUnauthorized() {
	rec := s.do(nil, http.MethodGet, "/processes", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestCreateAsClientIsForbidden() {
	client := requestcontext.Caller{
		ActorID:   id.UserID(uuid.New()),
		Role:      requestcontext.RoleClient,
		CompanyID: s.companyID,
	}
	rec := s.do(&client, http.MethodPost, "/processes", map[string]any{"person_id": uuid.NewString()})
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *HandlerSuite) TestInvalidTransitionIsConflict() {
	processID := s.createCase()

	rec := s.do(&s.admin, http.MethodPatch, "/processes/"+processID.String(), map[string]any{
		"status_id": s.statuses[models.StatusCodeApproved].ID.String(),
	})
	s.Equal(http.StatusConflict, rec.Code)

	var body map[string]string
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("invalid_transition", body["error"])
	s.Contains(body["error_description"], "Invalid status transition")
}

func (s *HandlerSuite) TestUnknownProcessIsNotFound() {
	rec := s.do(&s.admin, http.MethodGet, "/processes/"+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestMalformedIDIsBadRequest() {
	rec := s.do(&s.admin, http.MethodGet, "/processes/not-a-uuid", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestBulkStatusRequiresIDs() {
	rec := s.do(&s.admin, http.MethodPost, "/processes/bulk-status", map[string]any{
		"process_ids": []string{},
		"status_code": models.StatusCodeAwaitingDocs,
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestBulkStatusReportsPartialResult() {
	first := s.createCase()
	second := s.createCase()

	rec := s.do(&s.admin, http.MethodPost, "/processes/bulk-status", map[string]any{
		"process_ids": []string{first.String(), second.String()},
		"status_code": models.StatusCodeAwaitingDocs,
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	var result struct {
		Successful     []string `json:"successful"`
		TotalProcessed int      `json:"total_processed"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &result))
	s.Equal(2, result.TotalProcessed)
	s.Len(result.Successful, 2)
}
