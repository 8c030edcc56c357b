package v1

import (
	"time"
)

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Title         string   `json:"title" validate:"required,min=2,max=255"`
	Type          string   `json:"type" validate:"required,oneof=Theft Violence Intrusion Fire Medical Other"`
	Description   string   `json:"description,omitempty"`
	Location      string   `json:"location" validate:"required"`
	Latitude      *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
	Severity      string   `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Reporter      string   `json:"reporter,omitempty"`
	ReporterPhone string   `json:"reporterPhone,omitempty"`
	ReporterEmail string   `json:"reporterEmail,omitempty" validate:"omitempty,email"`
}

// UpdateIncidentRequest DTO для частичного обновления инцидента.
// Отсутствующие поля не трогают существующие значения.
// @Description DTO для частичного обновления инцидента
type UpdateIncidentRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=2,max=255"`
	Type        *string  `json:"type,omitempty" validate:"omitempty,oneof=Theft Violence Intrusion Fire Medical Other"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Latitude    *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"lng,omitempty" validate:"omitempty,longitude"`
	Severity    *string  `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=open investigating resolved"`
	AssignedTo  *string  `json:"assignedTo,omitempty"`
}

// UpdateStatusRequest DTO для смены статуса инцидента
// @Description DTO для смены статуса инцидента
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open investigating resolved"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID            int64     `json:"id"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location"`
	Latitude      *float64  `json:"lat,omitempty"`
	Longitude     *float64  `json:"lng,omitempty"`
	Severity      string    `json:"severity"`
	Status        string    `json:"status"`
	Reporter      string    `json:"reporter,omitempty"`
	ReporterPhone string    `json:"reporterPhone,omitempty"`
	ReporterEmail string    `json:"reporterEmail,omitempty"`
	AssignedTo    string    `json:"assignedTo,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IncidentListResponse конверт для списка инцидентов
// @Description Конверт для списка инцидентов
type IncidentListResponse struct {
	Incidents []*IncidentResponse `json:"incidents"`
}

// IncidentEnvelope конверт для единственного инцидента
// @Description Конверт для единственного инцидента
type IncidentEnvelope struct {
	Incident *IncidentResponse `json:"incident"`
}

// PublicReportResponse DTO для ответа на публичное обращение
// @Description DTO для ответа на публичное обращение
type PublicReportResponse struct {
	Incident   *IncidentResponse `json:"incident"`
	TrackingID int64             `json:"trackingId"`
}
