package store

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/cache"
	"github.com/shenikar/securewatch_sims/internal/config"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/sirupsen/logrus"
)

// Gateway определяет контракт сетевого шлюза, через который Store
// синхронизируется с сервером
type Gateway interface {
	List(ctx context.Context, filters map[string]string) ([]models.Incident, error)
	GetByID(ctx context.Context, id int64) (*models.Incident, error)
	GetByTrackingID(ctx context.Context, trackingID int64) (*models.Incident, error)
	Create(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error)
	ReportPublic(ctx context.Context, draft models.IncidentDraft) (*models.Incident, int64, error)
	Update(ctx context.Context, id int64, patch models.IncidentPatch) (*models.Incident, error)
	UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Incident, error)
	Delete(ctx context.Context, id int64) error
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// Store - единственный держатель текущей коллекции инцидентов в процессе.
// Оркестрирует Gateway и Cache: успешные ответы сервера зеркалируются в
// кэш, при сбоях сети чтение деградирует до кэша, а публичное обращение
// синтезируется локально и никогда не выглядит неуспешным для репортера.
type Store struct {
	gateway  Gateway
	cache    *cache.Cache
	cfg      *config.Config
	logger   *logrus.Logger
	validate *validator.Validate

	mu           sync.RWMutex
	incidents    []models.Incident
	loading      bool
	lastErr      error
	lastSyncedAt time.Time

	subMu     sync.Mutex
	subs      map[int]func([]models.Incident)
	nextSubID int

	cronMu sync.Mutex
	cron   *cron.Cron
}

// New создает Store поверх шлюза и кэша
func New(gw Gateway, c *cache.Cache, cfg *config.Config, logger *logrus.Logger) *Store {
	return &Store{
		gateway:  gw,
		cache:    c,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
		subs:     make(map[int]func([]models.Incident)),
	}
}

// Refresh перечитывает коллекцию с сервера. Успех - жесткая замена
// коллекции ответом сервера и зеркалирование в кэш; сбой - откат на кэш,
// а при пустом кэше коллекция остается прежней, чтобы не ронять рабочий
// вид. Ошибки наружу не поднимаются: чтение деградирует, а причина
// фиксируется в LastError и логе.
func (s *Store) Refresh(ctx context.Context, filters map[string]string) []models.Incident {
	log := s.logger.WithField("store", "refresh")
	s.setLoading(true)
	defer s.setLoading(false)

	incidents, err := s.gateway.List(ctx, filters)
	if err != nil {
		log.WithError(err).Warn("Refresh failed, falling back to local cache")
		s.mu.Lock()
		s.lastErr = err
		if cached := s.cache.LoadAll(); len(cached) > 0 {
			s.incidents = cached
		}
		snapshot := snapshotLocked(s.incidents)
		s.mu.Unlock()
		s.notify(snapshot)
		return snapshot
	}

	s.mu.Lock()
	s.incidents = incidents
	s.lastErr = nil
	s.lastSyncedAt = time.Now()
	snapshot := snapshotLocked(s.incidents)
	s.mu.Unlock()

	if err := s.cache.SaveAll(incidents); err != nil {
		log.WithError(err).Warn("Failed to mirror collection to cache")
	}

	log.WithField("count", len(incidents)).Debug("Collection refreshed")
	s.notify(snapshot)
	return snapshot
}

// Create создает инцидент от имени привилегированного пользователя.
// Сбой шлюза поднимается наверх без локального синтеза: привилегированный
// пользователь должен видеть неудачу создания. Успешная запись
// оптимистично добавляется в коллекцию; следующая естественная
// синхронизация приводит ее к серверному виду.
func (s *Store) Create(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error) {
	if err := s.validate.Struct(draft); err != nil {
		return nil, apperrors.Validation("invalid incident draft", err)
	}

	inc, err := s.gateway.Create(ctx, draft)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create incident")
		return nil, err
	}

	s.mergeIncident(*inc)
	return inc, nil
}

// ReportPublic отправляет публичное обращение. Единственный путь, который
// полностью поглощает сетевые и серверные сбои: при недоступном шлюзе
// запись синтезируется локально и сохраняется так, как будто сервер ее
// принял. Для репортера без аутентификации другого канала повтора нет.
func (s *Store) ReportPublic(ctx context.Context, draft models.IncidentDraft) (*models.PublicReport, error) {
	if err := s.validate.Struct(draft); err != nil {
		return nil, apperrors.Validation("invalid public report", err)
	}

	log := s.logger.WithField("store", "report_public")

	inc, trackingID, err := s.gateway.ReportPublic(ctx, draft)
	if err != nil {
		log.WithError(err).Warn("Gateway unreachable, synthesizing incident locally")
		synthesized := s.synthesize(draft)
		inc = &synthesized
		trackingID = synthesized.ID
	}

	if err := s.cache.SavePublicIncident(*inc); err != nil {
		log.WithError(err).Warn("Failed to persist public incident")
	}
	if err := s.cache.SaveTrackingID(trackingID); err != nil {
		log.WithError(err).Warn("Failed to persist tracking id")
	}

	s.mergeIncident(*inc)

	return &models.PublicReport{Incident: *inc, TrackingID: trackingID}, nil
}

// Update отправляет частичное обновление. Успех - слияние серверной записи
// в коллекцию по id; сбой - патч накладывается на долговечное зеркало,
// чтобы правка пережила реконнект, но ошибка все равно поднимается:
// неудача привилегированной мутации должна быть видна.
func (s *Store) Update(ctx context.Context, id int64, patch models.IncidentPatch) (*models.Incident, error) {
	updated, err := s.gateway.Update(ctx, id, patch)
	if err != nil {
		s.logger.WithError(err).WithField("incident_id", id).Warn("Update failed, patching cache mirror")
		if ferr := s.cache.PatchIncident(id, patch); ferr != nil {
			if apperrors.IsNotFound(ferr) {
				return nil, ferr
			}
			s.logger.WithError(ferr).Warn("Failed to patch cache mirror")
		}
		return nil, err
	}

	s.mergeIncident(*updated)
	s.mirror()
	return updated, nil
}

// UpdateStatus меняет статус через узкий PATCH-эндпоинт и независимо от
// его исхода прогоняет изменение через общий Update, чтобы семантика
// updatedAt оставалась единой.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Incident, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("invalid status "+string(status), nil)
	}

	if _, err := s.gateway.UpdateStatus(ctx, id, status); err != nil {
		s.logger.WithError(err).WithField("incident_id", id).Debug("Dedicated status endpoint failed")
	}

	return s.Update(ctx, id, models.IncidentPatch{Status: &status})
}

// Delete удаляет инцидент. Из коллекции запись уходит только после
// подтверждения сервера; при сбое шлюза чистится кэш-зеркало, а ошибка
// поднимается. Удаление терминально - запись не восстанавливается.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.gateway.Delete(ctx, id); err != nil {
		s.logger.WithError(err).WithField("incident_id", id).Warn("Delete failed, removing from cache mirror")
		if cerr := s.cache.DeleteIncident(id); cerr != nil {
			s.logger.WithError(cerr).Warn("Failed to remove incident from cache mirror")
		}
		return err
	}

	s.mu.Lock()
	kept := s.incidents[:0]
	for _, inc := range s.incidents {
		if inc.ID != id {
			kept = append(kept, inc)
		}
	}
	s.incidents = kept
	snapshot := snapshotLocked(s.incidents)
	s.mu.Unlock()

	s.mirror()
	s.notify(snapshot)
	return nil
}

// GetByID ищет запись: сервер, затем коллекция в памяти, затем публичный
// бакет кэша, затем общее зеркало. Наружу ошибка не поднимается - при
// полном промахе возвращается nil.
func (s *Store) GetByID(ctx context.Context, id int64) *models.Incident {
	if inc, err := s.gateway.GetByID(ctx, id); err == nil {
		return inc
	} else {
		s.logger.WithError(err).WithField("incident_id", id).Debug("GetByID falling back to local sources")
	}
	return s.findLocal(id)
}

// GetByTrackingID ищет запись по tracking id через публичный эндпоинт,
// с тем же каскадом локальных фолбэков
func (s *Store) GetByTrackingID(ctx context.Context, trackingID int64) *models.Incident {
	if inc, err := s.gateway.GetByTrackingID(ctx, trackingID); err == nil {
		return inc
	} else {
		s.logger.WithError(err).WithField("tracking_id", trackingID).Debug("GetByTrackingID falling back to local sources")
	}
	return s.findLocal(trackingID)
}

// TrackingID возвращает tracking id последнего публичного обращения
func (s *Store) TrackingID() (int64, bool) {
	return s.cache.LoadTrackingID()
}

// DashboardStats возвращает агрегаты с сервера, а при его недоступности
// считает их по локальному снимку коллекции
func (s *Store) DashboardStats(ctx context.Context) *models.DashboardStats {
	if stats, err := s.gateway.DashboardStats(ctx); err == nil {
		return stats
	} else {
		s.logger.WithError(err).Debug("Dashboard stats falling back to local snapshot")
	}

	stats := &models.DashboardStats{
		BySeverity: make(map[models.Severity]int),
		ByType:     make(map[models.IncidentType]int),
	}
	collection := s.Snapshot()
	if len(collection) == 0 {
		collection = s.cache.LoadAll()
	}
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, inc := range collection {
		stats.Total++
		switch inc.Status {
		case models.StatusOpen:
			stats.Open++
		case models.StatusInvestigating:
			stats.Investigating++
		case models.StatusResolved:
			stats.Resolved++
		}
		stats.BySeverity[inc.Severity]++
		stats.ByType[inc.Type]++
		if inc.CreatedAt.After(cutoff) {
			stats.Last24Hours++
		}
	}
	return stats
}

// Snapshot возвращает копию текущей коллекции
func (s *Store) Snapshot() []models.Incident {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotLocked(s.incidents)
}

// IsLoading сообщает, выполняется ли сейчас refresh
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError возвращает ошибку последней неуспешной синхронизации
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// LastSyncedAt возвращает время последней успешной синхронизации
func (s *Store) LastSyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncedAt
}

// Subscribe регистрирует потребителя снимков коллекции; возвращает
// функцию отписки
func (s *Store) Subscribe(fn func([]models.Incident)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// synthesize строит полноценную локальную запись для офлайн-обращения:
// id - текущее время в миллисекундах (плюс uuid как корреляционный
// идентификатор, отличающий локальные записи от серверных id),
// координаты - переданные или легкий разброс вокруг запасного центра.
func (s *Store) synthesize(draft models.IncidentDraft) models.Incident {
	now := time.Now()

	severity := draft.Severity
	if severity == "" {
		severity = models.SeverityMedium
	}
	reporter := draft.Reporter
	if reporter == "" {
		reporter = models.ReporterAnonymous
	}

	lat, lng := draft.Latitude, draft.Longitude
	if lat == nil || lng == nil {
		// Разброс ±0.005° вокруг запасного центра, чтобы маркеры не слипались
		jlat := s.cfg.FallbackLat + (rand.Float64()-0.5)*0.01
		jlng := s.cfg.FallbackLng + (rand.Float64()-0.5)*0.01
		lat, lng = &jlat, &jlng
	}

	return models.Incident{
		ID:            now.UnixMilli(),
		CorrelationID: uuid.NewString(),
		Title:         draft.Title,
		Type:          draft.Type,
		Description:   draft.Description,
		Location:      draft.Location,
		Latitude:      lat,
		Longitude:     lng,
		Severity:      severity,
		Status:        models.StatusOpen,
		Reporter:      reporter,
		ReporterPhone: draft.ReporterPhone,
		ReporterEmail: draft.ReporterEmail,
		AssignedTo:    models.AssignedPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// mergeIncident вливает запись в коллекцию по id: существующая заменяется,
// новая добавляется в конец
func (s *Store) mergeIncident(inc models.Incident) {
	s.mu.Lock()
	replaced := false
	for i := range s.incidents {
		if s.incidents[i].ID == inc.ID {
			s.incidents[i] = inc
			replaced = true
			break
		}
	}
	if !replaced {
		s.incidents = append(s.incidents, inc)
	}
	snapshot := snapshotLocked(s.incidents)
	s.mu.Unlock()
	s.notify(snapshot)
}

// mirror зеркалирует текущую коллекцию в кэш
func (s *Store) mirror() {
	if err := s.cache.SaveAll(s.Snapshot()); err != nil {
		s.logger.WithError(err).Warn("Failed to mirror collection to cache")
	}
}

// findLocal ищет запись в локальных источниках в порядке: коллекция,
// публичный бакет, общее зеркало
func (s *Store) findLocal(id int64) *models.Incident {
	s.mu.RLock()
	for i := range s.incidents {
		if s.incidents[i].ID == id {
			found := s.incidents[i]
			s.mu.RUnlock()
			return &found
		}
	}
	s.mu.RUnlock()

	for _, inc := range s.cache.LoadPublicIncidents() {
		if inc.ID == id {
			found := inc
			return &found
		}
	}
	for _, inc := range s.cache.LoadAll() {
		if inc.ID == id {
			found := inc
			return &found
		}
	}
	return nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) notify(snapshot []models.Incident) {
	s.subMu.Lock()
	subs := make([]func([]models.Incident), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func snapshotLocked(incidents []models.Incident) []models.Incident {
	snapshot := make([]models.Incident, len(incidents))
	copy(snapshot, incidents)
	return snapshot
}
