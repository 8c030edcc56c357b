package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/broadcast"
	"github.com/shenikar/securewatch_sims/internal/config"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/shenikar/securewatch_sims/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testJWTSecret = "test-secret"

// newTestHandler создает новый экземпляр Handler с мокированным сервисом
func newTestHandler(t *testing.T) (*Handler, *mocks.MockIncidentService, *gin.Engine) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIncidentService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		JWTSecret: testJWTSecret,
	}

	handler := NewHandler(mockService, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api, broadcast.NewHub(logger))

	return handler, mockService, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// authHeader выписывает JWT с заданной ролью
func authHeader(t *testing.T, role string) map[string]string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "test-user",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + signed}
}

func testIncident(id int64, title string) *models.Incident {
	return &models.Incident{
		ID:         id,
		Title:      title,
		Type:       models.TypeTheft,
		Location:   "Склад",
		Severity:   models.SeverityMedium,
		Status:     models.StatusOpen,
		AssignedTo: models.AssignedNone,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestCreateIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{
		Title:    "Test Incident",
		Type:     "Theft",
		Location: "Warehouse",
	}
	expectedIncident := testIncident(1, reqBody.Title)

	mockService.EXPECT().
		CreateIncident(gomock.Any(), gomock.Any()).
		Return(expectedIncident, nil).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), authHeader(t, "operator"))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp IncidentEnvelope
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	require.NotNil(t, resp.Incident)
	assert.Equal(t, int64(1), resp.Incident.ID)
	assert.Equal(t, reqBody.Title, resp.Incident.Title)
}

func TestCreateIncident_Unauthorized(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	bodyBytes, _ := json.Marshal(CreateIncidentRequest{Title: "Test", Type: "Theft", Location: "W"})
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBufferString(`{"title": "test"`), authHeader(t, "operator"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestCreateIncident_ValidationError(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{ // Отсутствует Title
		Type:     "Theft",
		Location: "Warehouse",
	}

	mockService.EXPECT().CreateIncident(gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents", bytes.NewBuffer(bodyBytes), authHeader(t, "operator"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Title' failed on the 'required' tag")
}

func TestReportPublicIncident_NoAuthRequired(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	reqBody := CreateIncidentRequest{
		Title:    "Public report",
		Type:     "Fire",
		Location: "Market",
	}
	incident := testIncident(77, reqBody.Title)
	incident.Reporter = models.ReporterAnonymous
	incident.AssignedTo = models.AssignedPending

	mockService.EXPECT().
		ReportPublicIncident(gomock.Any(), gomock.Any()).
		Return(&models.PublicReport{Incident: *incident, TrackingID: 77}, nil).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "POST", "/api/v1/incidents/public", bytes.NewBuffer(bodyBytes))

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp PublicReportResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, int64(77), resp.TrackingID)
	assert.Equal(t, "Pending Assignment", resp.Incident.AssignedTo)
}

func TestTrackIncident_NoAuthRequired(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		GetIncidentByTrackingID(gomock.Any(), int64(55)).
		Return(testIncident(55, "Отслеживаемый"), nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/track/55", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, int64(55), resp.ID)
}

func TestListIncidents_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		ListIncidents(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter models.ListFilter) ([]models.Incident, error) {
			assert.Equal(t, models.StatusOpen, filter.Status)
			return []models.Incident{*testIncident(1, "Первый"), *testIncident(2, "Второй")}, nil
		}).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents?status=open", nil, authHeader(t, "operator"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp IncidentListResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Len(t, resp.Incidents, 2)
}

func TestGetIncident_NotFound(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		GetIncident(gomock.Any(), int64(404)).
		Return(nil, apperrors.NotFound(404)).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/incidents/404", nil, authHeader(t, "operator"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "incident not found")
}

func TestGetIncident_InvalidID(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().GetIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/incidents/abc", nil, authHeader(t, "operator"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateIncident_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	newTitle := "Обновленный"
	reqBody := UpdateIncidentRequest{Title: &newTitle}

	mockService.EXPECT().
		UpdateIncident(gomock.Any(), int64(7), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, patch models.IncidentPatch) (*models.Incident, error) {
			require.NotNil(t, patch.Title)
			assert.Equal(t, newTitle, *patch.Title)
			return testIncident(7, newTitle), nil
		}).
		Times(1)

	bodyBytes, _ := json.Marshal(reqBody)
	w := makeRequest(router, "PUT", "/api/v1/incidents/7", bytes.NewBuffer(bodyBytes), authHeader(t, "operator"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp IncidentEnvelope
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, newTitle, resp.Incident.Title)
}

func TestUpdateIncidentStatus_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)
	resolved := testIncident(5, "Закрытый")
	resolved.Status = models.StatusResolved

	mockService.EXPECT().
		UpdateIncidentStatus(gomock.Any(), int64(5), models.StatusResolved).
		Return(resolved, nil).
		Times(1)

	w := makeRequest(router, "PATCH", "/api/v1/incidents/5/status",
		bytes.NewBufferString(`{"status":"resolved"}`), authHeader(t, "operator"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp IncidentResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "resolved", resp.Status)
}

func TestUpdateIncidentStatus_InvalidStatus(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().UpdateIncidentStatus(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "PATCH", "/api/v1/incidents/5/status",
		bytes.NewBufferString(`{"status":"burning"}`), authHeader(t, "operator"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteIncident_RequiresAdminRole(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().DeleteIncident(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "DELETE", "/api/v1/incidents/3", nil, authHeader(t, "operator"))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteIncident_Admin_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		DeleteIncident(gomock.Any(), int64(3)).
		Return(nil).
		Times(1)

	w := makeRequest(router, "DELETE", "/api/v1/incidents/3", nil, authHeader(t, "admin"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestGetDashboardStats_Success(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().
		GetDashboardStats(gomock.Any()).
		Return(&models.DashboardStats{Total: 5, Open: 2}, nil).
		Times(1)

	w := makeRequest(router, "GET", "/api/v1/analytics/dashboard", nil, authHeader(t, "operator"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":5`)
}

func TestHealthCheck(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, "GET", "/api/v1/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestJWTAuthMiddleware_RejectsWrongSecret(t *testing.T) {
	_, mockService, router := newTestHandler(t)

	mockService.EXPECT().ListIncidents(gomock.Any(), gomock.Any()).Times(0)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "admin"})
	signed, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	w := makeRequest(router, "GET", "/api/v1/incidents", nil, map[string]string{"Authorization": "Bearer " + signed})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
