package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/securewatch_sims/internal/events"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/sirupsen/logrus"
)

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.ListFilter) ([]models.Incident, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id int64) error
}

// IncidentService определяет контракт для бизнес-логики управления инцидентами
type IncidentService interface {
	CreateIncident(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error)
	ReportPublicIncident(ctx context.Context, draft models.IncidentDraft) (*models.PublicReport, error)
	GetIncident(ctx context.Context, id int64) (*models.Incident, error)
	GetIncidentByTrackingID(ctx context.Context, trackingID int64) (*models.Incident, error)
	UpdateIncident(ctx context.Context, id int64, patch models.IncidentPatch) (*models.Incident, error)
	UpdateIncidentStatus(ctx context.Context, id int64, status models.Status) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id int64) error
	ListIncidents(ctx context.Context, filter models.ListFilter) ([]models.Incident, error)
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

type incidentService struct {
	repo      IncidentRepository
	publisher events.Publisher
	logger    *logrus.Logger
}

func NewIncidentService(repo IncidentRepository, publisher events.Publisher, logger *logrus.Logger) IncidentService {
	return &incidentService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateIncident создает инцидент от имени аутентифицированного пользователя
func (s *incidentService) CreateIncident(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"title":   draft.Title,
	})
	log.Info("Attempting to create a new incident")

	incident := draftToIncident(draft)
	incident.AssignedTo = models.AssignedNone

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return nil, fmt.Errorf("service: could not create incident: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	s.publish(ctx, events.EventCreated, incident)
	return incident, nil
}

// ReportPublicIncident принимает публичное обращение без аутентификации.
// Tracking id обращения совпадает с id созданной записи.
func (s *incidentService) ReportPublicIncident(ctx context.Context, draft models.IncidentDraft) (*models.PublicReport, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "ReportPublicIncident",
		"title":   draft.Title,
	})
	log.Info("Attempting to register a public report")

	incident := draftToIncident(draft)
	incident.AssignedTo = models.AssignedPending
	if incident.Reporter == "" {
		incident.Reporter = models.ReporterAnonymous
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create public incident in repository")
		return nil, fmt.Errorf("service: could not register public report: %w", err)
	}

	log.WithField("incident_id", incident.ID).Info("Public report registered successfully")
	s.publish(ctx, events.EventReported, incident)
	return &models.PublicReport{Incident: *incident, TrackingID: incident.ID}, nil
}

// GetIncident получает инцидент по ID, сначала проверяя Redis кэш
func (s *incidentService) GetIncident(ctx context.Context, id int64) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to read incident from cache")
	}
	if cached != nil {
		log.Debug("Incident served from cache")
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Error("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}

// GetIncidentByTrackingID находит инцидент по tracking id публичного обращения
func (s *incidentService) GetIncidentByTrackingID(ctx context.Context, trackingID int64) (*models.Incident, error) {
	return s.GetIncident(ctx, trackingID)
}

// UpdateIncident накладывает частичное обновление на существующий инцидент
func (s *incidentService) UpdateIncident(ctx context.Context, id int64, patch models.IncidentPatch) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncident",
		"incident_id": id,
	})
	log.Info("Attempting to update incident")

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return nil, fmt.Errorf("service: incident %d not found for update: %w", id, err)
	}

	patch.Apply(existing)

	if err := s.repo.Update(ctx, existing); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident updated successfully")
	s.publish(ctx, events.EventUpdated, existing)
	return existing, nil
}

// UpdateIncidentStatus меняет статус инцидента
func (s *incidentService) UpdateIncidentStatus(ctx context.Context, id int64, status models.Status) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateIncidentStatus",
		"incident_id": id,
		"status":      status,
	})
	log.Info("Attempting to update incident status")

	incident, err := s.UpdateIncident(ctx, id, models.IncidentPatch{Status: &status})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventStatusChanged, incident)
	return incident, nil
}

// DeleteIncident удаляет инцидент без возможности восстановления
func (s *incidentService) DeleteIncident(ctx context.Context, id int64) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
	})
	log.Info("Attempting to delete incident")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent incident")
		return fmt.Errorf("service: incident %d not found for delete: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete incident in repository")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}

	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	log.Info("Incident deleted successfully")
	s.publish(ctx, events.EventDeleted, incident)
	return nil
}

// ListIncidents возвращает список инцидентов с фильтрами и пагинацией
func (s *incidentService) ListIncidents(ctx context.Context, filter models.ListFilter) ([]models.Incident, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	log := s.logger.WithFields(logrus.Fields{
		"service":   "incident",
		"method":    "ListIncidents",
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
	log.Info("Listing incidents")

	incidents, err := s.repo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Info("Incidents listed successfully")
	return incidents, nil
}

// GetDashboardStats возвращает агрегаты для панели мониторинга
func (s *incidentService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "GetDashboardStats",
	})

	stats, err := s.repo.DashboardStats(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to get dashboard stats from repository")
		return nil, fmt.Errorf("service: could not get dashboard stats: %w", err)
	}
	return stats, nil
}

// publish отправляет событие жизненного цикла; сбой публикации не
// ломает основную операцию
func (s *incidentService) publish(ctx context.Context, eventType string, incident *models.Incident) {
	if s.publisher == nil {
		return
	}
	event := events.Event{
		Type:      eventType,
		Incident:  incident,
		Timestamp: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("Failed to publish incident event")
	}
}

// draftToIncident превращает черновик в запись с серверными умолчаниями
func draftToIncident(draft models.IncidentDraft) *models.Incident {
	severity := draft.Severity
	if severity == "" {
		severity = models.SeverityMedium
	}
	return &models.Incident{
		CorrelationID: uuid.NewString(),
		Title:         draft.Title,
		Type:          draft.Type,
		Description:   draft.Description,
		Location:      draft.Location,
		Latitude:      draft.Latitude,
		Longitude:     draft.Longitude,
		Severity:      severity,
		Status:        models.StatusOpen,
		Reporter:      draft.Reporter,
		ReporterPhone: draft.ReporterPhone,
		ReporterEmail: draft.ReporterEmail,
	}
}
