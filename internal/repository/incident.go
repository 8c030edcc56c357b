package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/shenikar/securewatch_sims/internal/service"
)

const incidentColumns = `
	id,
	COALESCE(correlation_id, ''),
	title,
	type,
	description,
	location,
	latitude,
	longitude,
	severity,
	status,
	reporter,
	reporter_phone,
	reporter_email,
	assigned_to,
	created_at,
	updated_at`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
	}
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (correlation_id, title, type, description, location, latitude, longitude, severity, status, reporter, reporter_phone, reporter_email, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id, created_at, updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.CorrelationID,
		incident.Title,
		incident.Type,
		incident.Description,
		incident.Location,
		incident.Latitude,
		incident.Longitude,
		incident.Severity,
		incident.Status,
		incident.Reporter,
		incident.ReporterPhone,
		incident.ReporterEmail,
		incident.AssignedTo,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его id
func (r *IncidentRepository) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE id = $1;`, incidentColumns)

	incident := &models.Incident{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.CorrelationID,
		&incident.Title,
		&incident.Type,
		&incident.Description,
		&incident.Location,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Severity,
		&incident.Status,
		&incident.Reporter,
		&incident.ReporterPhone,
		&incident.ReporterEmail,
		&incident.AssignedTo,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(id)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Update перезаписывает изменяемые поля инцидента и обновляет updated_at
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			title = $1,
			type = $2,
			description = $3,
			location = $4,
			latitude = $5,
			longitude = $6,
			severity = $7,
			status = $8,
			reporter = $9,
			reporter_phone = $10,
			reporter_email = $11,
			assigned_to = $12,
			updated_at = NOW()
		WHERE id = $13
		RETURNING updated_at;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Type,
		incident.Description,
		incident.Location,
		incident.Latitude,
		incident.Longitude,
		incident.Severity,
		incident.Status,
		incident.Reporter,
		incident.ReporterPhone,
		incident.ReporterEmail,
		incident.AssignedTo,
		incident.ID,
	).Scan(&incident.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound(incident.ID)
		}
		return fmt.Errorf("failed to update incident: %w", err)
	}
	return nil
}

// Delete удаляет инцидент без возможности восстановления
func (r *IncidentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM incidents WHERE id = $1;`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NotFound(id)
	}
	return nil
}

// List возвращает список инцидентов с фильтрами и пагинацией
func (r *IncidentRepository) List(ctx context.Context, filter models.ListFilter) ([]models.Incident, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Severity != "" {
		args = append(args, filter.Severity)
		conditions = append(conditions, fmt.Sprintf("severity = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", len(args), len(args), len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize)
	limitIdx := len(args)
	args = append(args, offset)
	offsetIdx := len(args)

	query := fmt.Sprintf(`
		SELECT %s
		FROM incidents
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d;
	`, incidentColumns, where, limitIdx, offsetIdx)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]models.Incident, 0)
	for rows.Next() {
		incident := models.Incident{}
		err := rows.Scan(
			&incident.ID,
			&incident.CorrelationID,
			&incident.Title,
			&incident.Type,
			&incident.Description,
			&incident.Location,
			&incident.Latitude,
			&incident.Longitude,
			&incident.Severity,
			&incident.Status,
			&incident.Reporter,
			&incident.ReporterPhone,
			&incident.ReporterEmail,
			&incident.AssignedTo,
			&incident.CreatedAt,
			&incident.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return incidents, nil
}

// DashboardStats считает агрегаты по инцидентам для панели мониторинга
func (r *IncidentRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		BySeverity: make(map[models.Severity]int),
		ByType:     make(map[models.IncidentType]int),
	}

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'open'),
			COUNT(*) FILTER (WHERE status = 'investigating'),
			COUNT(*) FILTER (WHERE status = 'resolved'),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '24 hours')
		FROM incidents;
	`
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Open,
		&stats.Investigating,
		&stats.Resolved,
		&stats.Last24Hours,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get incident totals: %w", err)
	}

	severityRows, err := r.db.Query(ctx, `SELECT severity, COUNT(*) FROM incidents GROUP BY severity;`)
	if err != nil {
		return nil, fmt.Errorf("failed to get severity stats: %w", err)
	}
	defer severityRows.Close()
	for severityRows.Next() {
		var severity models.Severity
		var count int
		if err := severityRows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan severity row: %w", err)
		}
		stats.BySeverity[severity] = count
	}
	if err := severityRows.Err(); err != nil {
		return nil, fmt.Errorf("error severity iteration: %w", err)
	}

	typeRows, err := r.db.Query(ctx, `SELECT type, COUNT(*) FROM incidents GROUP BY type;`)
	if err != nil {
		return nil, fmt.Errorf("failed to get type stats: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var incidentType models.IncidentType
		var count int
		if err := typeRows.Scan(&incidentType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type row: %w", err)
		}
		stats.ByType[incidentType] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("error type iteration: %w", err)
	}

	return stats, nil
}

// GetIncidentFromCache пытается получить инцидент из Redis
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id int64) (*models.Incident, error) {
	key := fmt.Sprintf("incident:%d", id)
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache сохраняет инцидент в Redis
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	key := fmt.Sprintf("incident:%d", incident.ID)
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	// Срок жизни кэша - 5 минут
	if err := r.redisClient.Set(ctx, key, val, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache удаляет инцидент из Redis кэша
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id int64) error {
	key := fmt.Sprintf("incident:%d", id)
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}
