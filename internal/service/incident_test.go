package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/shenikar/securewatch_sims/internal/apperrors"
	events_mocks "github.com/shenikar/securewatch_sims/internal/events/mocks"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/shenikar/securewatch_sims/internal/service/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestIncidentService — вспомогательная функция для создания инстанса сервиса с моками.
func newTestIncidentService(t *testing.T) (*incidentService, *mocks.MockIncidentRepository, *events_mocks.MockPublisher) {
	ctrl := gomock.NewController(t)
	repoMock := mocks.NewMockIncidentRepository(ctrl)
	publisherMock := events_mocks.NewMockPublisher(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	service := NewIncidentService(repoMock, publisherMock, logger)
	return service.(*incidentService), repoMock, publisherMock
}

func TestGetIncident_Success_FromCache(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	expectedIncident := &models.Incident{
		ID:    1,
		Title: "Тестовый инцидент из кеша",
	}

	// Ожидания
	repoMock.EXPECT().
		GetIncidentFromCache(ctx, int64(1)).
		Return(expectedIncident, nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, 1)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_CacheMiss_FetchesAndCaches(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()
	expectedIncident := &models.Incident{
		ID:    2,
		Title: "Тестовый инцидент из бд",
	}

	// Ожидания
	repoMock.EXPECT().
		GetIncidentFromCache(ctx, int64(2)).
		Return(nil, nil).
		Times(1)
	repoMock.EXPECT().
		GetByID(ctx, int64(2)).
		Return(expectedIncident, nil).
		Times(1)
	repoMock.EXPECT().
		SetIncidentCache(ctx, expectedIncident).
		Return(nil).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, 2)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, expectedIncident, incident)
}

func TestGetIncident_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().
		GetIncidentFromCache(ctx, int64(404)).
		Return(nil, nil).
		Times(1)
	repoMock.EXPECT().
		GetByID(ctx, int64(404)).
		Return(nil, apperrors.NotFound(404)).
		Times(1)

	// Действие
	incident, err := service.GetIncident(ctx, 404)

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateIncident_AppliesDefaultsAndPublishes(t *testing.T) {
	// Подготовка
	service, repoMock, publisherMock := newTestIncidentService(t)
	ctx := context.Background()
	draft := models.IncidentDraft{
		Title:    "Проникновение на склад",
		Type:     models.TypeIntrusion,
		Location: "Склад 2",
	}

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, incident *models.Incident) error {
			incident.ID = 10
			return nil
		}).
		Times(1)
	publisherMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Return(nil).
		Times(1)

	// Действие
	incident, err := service.CreateIncident(ctx, draft)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, int64(10), incident.ID)
	assert.NotEmpty(t, incident.CorrelationID)
	assert.Equal(t, models.SeverityMedium, incident.Severity)
	assert.Equal(t, models.StatusOpen, incident.Status)
	assert.Equal(t, models.AssignedNone, incident.AssignedTo)
}

func TestCreateIncident_RepositoryError(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		Return(fmt.Errorf("db down")).
		Times(1)

	// Действие
	incident, err := service.CreateIncident(ctx, models.IncidentDraft{Title: "Провал"})

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
}

func TestReportPublicIncident_AnonymousDefaultsAndTrackingID(t *testing.T) {
	// Подготовка
	service, repoMock, publisherMock := newTestIncidentService(t)
	ctx := context.Background()
	draft := models.IncidentDraft{
		Title:    "Кража велосипеда",
		Type:     models.TypeTheft,
		Location: "Парковка",
	}

	// Ожидания
	repoMock.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, incident *models.Incident) error {
			incident.ID = 55
			return nil
		}).
		Times(1)
	publisherMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Return(nil).
		Times(1)

	// Действие
	report, err := service.ReportPublicIncident(ctx, draft)

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, int64(55), report.TrackingID)
	assert.Equal(t, models.ReporterAnonymous, report.Incident.Reporter)
	assert.Equal(t, models.AssignedPending, report.Incident.AssignedTo)
	assert.Equal(t, models.StatusOpen, report.Incident.Status)
}

func TestUpdateIncident_AppliesPatchAndInvalidatesCache(t *testing.T) {
	// Подготовка
	service, repoMock, publisherMock := newTestIncidentService(t)
	ctx := context.Background()
	existing := &models.Incident{
		ID:     7,
		Title:  "Старый заголовок",
		Status: models.StatusOpen,
	}
	newTitle := "Новый заголовок"

	// Ожидания
	repoMock.EXPECT().
		GetByID(ctx, int64(7)).
		Return(existing, nil).
		Times(1)
	repoMock.EXPECT().
		Update(ctx, existing).
		Return(nil).
		Times(1)
	repoMock.EXPECT().
		InvalidateIncidentCache(ctx, int64(7)).
		Return(nil).
		Times(1)
	publisherMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Return(nil).
		Times(1)

	// Действие
	incident, err := service.UpdateIncident(ctx, 7, models.IncidentPatch{Title: &newTitle})

	// Проверки
	require.NoError(t, err)
	assert.Equal(t, "Новый заголовок", incident.Title)
}

func TestUpdateIncident_NotFound(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().
		GetByID(ctx, int64(404)).
		Return(nil, apperrors.NotFound(404)).
		Times(1)

	// Действие
	title := "Неважно"
	incident, err := service.UpdateIncident(ctx, 404, models.IncidentPatch{Title: &title})

	// Проверки
	require.Error(t, err)
	assert.Nil(t, incident)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteIncident_Success(t *testing.T) {
	// Подготовка
	service, repoMock, publisherMock := newTestIncidentService(t)
	ctx := context.Background()
	existing := &models.Incident{ID: 3, Title: "Удаляемый"}

	// Ожидания
	repoMock.EXPECT().
		GetByID(ctx, int64(3)).
		Return(existing, nil).
		Times(1)
	repoMock.EXPECT().
		Delete(ctx, int64(3)).
		Return(nil).
		Times(1)
	repoMock.EXPECT().
		InvalidateIncidentCache(ctx, int64(3)).
		Return(nil).
		Times(1)
	publisherMock.EXPECT().
		Publish(ctx, gomock.Any()).
		Return(nil).
		Times(1)

	// Действие
	err := service.DeleteIncident(ctx, 3)

	// Проверки
	require.NoError(t, err)
}

func TestListIncidents_ClampsPagination(t *testing.T) {
	// Подготовка
	service, repoMock, _ := newTestIncidentService(t)
	ctx := context.Background()

	// Ожидания
	repoMock.EXPECT().
		List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, filter models.ListFilter) ([]models.Incident, error) {
			assert.Equal(t, 1, filter.Page)
			assert.Equal(t, 20, filter.PageSize)
			return []models.Incident{}, nil
		}).
		Times(1)

	// Действие
	_, err := service.ListIncidents(ctx, models.ListFilter{Page: -5, PageSize: 10000})

	// Проверки
	require.NoError(t, err)
}
