package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-core/registrar-api/internal/middleware"
	"github.com/campus-core/registrar-api/internal/models"
	"github.com/campus-core/registrar-api/internal/service"
)

type registrationRepoStub struct {
	registered []models.Registration
	withdrawn  int
}

func (m *registrationRepoStub) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	return m.registered, nil
}

func (m *registrationRepoStub) ListStudentSections(ctx context.Context, studentID int64, semester string) ([]models.RegisteredSection, error) {
	return nil, nil
}

func (m *registrationRepoStub) Register(ctx context.Context, reg models.Registration) error {
	m.registered = append(m.registered, reg)
	return nil
}

func (m *registrationRepoStub) Withdraw(ctx context.Context, studentID int64, courseCode string) (int, error) {
	return m.withdrawn, nil
}

type sectionReaderStub struct{}

func (m *sectionReaderStub) FindByID(ctx context.Context, id int64) (*models.Section, error) {
	if id != 5 {
		return nil, sql.ErrNoRows
	}
	return &models.Section{
		ID: 5, CourseCode: "CS101", Days: "MON", TimeStart: "09:00", TimeEnd: "10:00",
		Semester: "2025-1", State: models.SectionStateOpen,
	}, nil
}

type gateStub struct{}

func (m *gateStub) IsRegistrationOpen(ctx context.Context) (bool, error) { return true, nil }

func newRegistrationHandlerFixture() (*RegistrationHandler, *registrationRepoStub) {
	repo := &registrationRepoStub{}
	svc := service.NewRegistrationService(repo, &sectionReaderStub{}, &gateStub{}, nil, nil, zap.NewNop())
	return NewRegistrationHandler(svc), repo
}

func postRegistration(t *testing.T, handler *RegistrationHandler, claims *models.JWTClaims, payload registerPayload) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, "/registrations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	handler.Register(c)
	return w
}

func TestRegistrationHandlerStudentRegistersSelf(t *testing.T) {
	handler, repo := newRegistrationHandlerFixture()
	claims := &models.JWTClaims{UserID: 2500001, Role: models.RoleStudent}

	w := postRegistration(t, handler, claims, registerPayload{SectionID: 5, Semester: "2025-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.registered, 1)
	assert.Equal(t, int64(2500001), repo.registered[0].StudentID, "student id comes from the token")
}

func TestRegistrationHandlerStudentCannotRegisterOthers(t *testing.T) {
	handler, repo := newRegistrationHandlerFixture()
	claims := &models.JWTClaims{UserID: 2500001, Role: models.RoleStudent}

	w := postRegistration(t, handler, claims, registerPayload{StudentID: 2500099, SectionID: 5, Semester: "2025-1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, repo.registered)
}

func TestRegistrationHandlerAdminRegistersAnyStudent(t *testing.T) {
	handler, repo := newRegistrationHandlerFixture()
	claims := &models.JWTClaims{UserID: 1, Role: models.RoleAdmin}

	w := postRegistration(t, handler, claims, registerPayload{StudentID: 2500099, SectionID: 5, Semester: "2025-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.registered, 1)
	assert.Equal(t, int64(2500099), repo.registered[0].StudentID)
}

func TestRegistrationHandlerAdminMustNameStudent(t *testing.T) {
	handler, _ := newRegistrationHandlerFixture()
	claims := &models.JWTClaims{UserID: 1, Role: models.RoleAdmin}

	w := postRegistration(t, handler, claims, registerPayload{SectionID: 5, Semester: "2025-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationHandlerUnauthenticated(t *testing.T) {
	handler, _ := newRegistrationHandlerFixture()

	w := postRegistration(t, handler, nil, registerPayload{SectionID: 5, Semester: "2025-1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegistrationHandlerWithdrawNotFound(t *testing.T) {
	handler, repo := newRegistrationHandlerFixture()
	repo.withdrawn = 0

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/registrations/CS999", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "course", Value: "CS999"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 2500001, Role: models.RoleStudent})

	handler.Withdraw(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
