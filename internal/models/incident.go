package models

import (
	"time"
)

// Тип инцидента
type IncidentType string

const (
	TypeTheft     IncidentType = "Theft"
	TypeViolence  IncidentType = "Violence"
	TypeIntrusion IncidentType = "Intrusion"
	TypeFire      IncidentType = "Fire"
	TypeMedical   IncidentType = "Medical"
	TypeOther     IncidentType = "Other"
)

// Valid проверяет, что тип инцидента входит в допустимый набор
func (t IncidentType) Valid() bool {
	switch t {
	case TypeTheft, TypeViolence, TypeIntrusion, TypeFire, TypeMedical, TypeOther:
		return true
	}
	return false
}

// Серьезность инцидента
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Статус жизненного цикла: open -> investigating -> resolved
type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusResolved:
		return true
	}
	return false
}

const (
	// ReporterAnonymous - имя репортера по умолчанию для публичных обращений
	ReporterAnonymous = "Anonymous"
	// AssignedPending - значение assignedTo до назначения офицера
	AssignedPending = "Pending Assignment"
	// AssignedNone - значение assignedTo для инцидентов, созданных администратором
	AssignedNone = "Not assigned yet"
)

// Incident - центральная доменная сущность
type Incident struct {
	ID int64 `json:"id"`
	// CorrelationID - клиентский идентификатор, присваивается при офлайн-синтезе,
	// чтобы отличать локальные записи от серверных id
	CorrelationID string       `json:"correlationId,omitempty"`
	Title         string       `json:"title"`
	Type          IncidentType `json:"type"`
	Description   string       `json:"description,omitempty"`
	Location      string       `json:"location,omitempty"`
	Latitude      *float64     `json:"lat,omitempty"`
	Longitude     *float64     `json:"lng,omitempty"`
	Severity      Severity     `json:"severity"`
	Status        Status       `json:"status"`
	Reporter      string       `json:"reporter"`
	ReporterPhone string       `json:"reporterPhone,omitempty"`
	ReporterEmail string       `json:"reporterEmail,omitempty"`
	AssignedTo    string       `json:"assignedTo"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// HasCoordinates сообщает, пригодна ли запись для отображения на карте
func (i *Incident) HasCoordinates() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// IncidentDraft - данные нового обращения (аутентифицированного или публичного)
type IncidentDraft struct {
	Title         string       `json:"title" validate:"required,min=2,max=255"`
	Type          IncidentType `json:"type" validate:"required,oneof=Theft Violence Intrusion Fire Medical Other"`
	Description   string       `json:"description,omitempty"`
	Location      string       `json:"location" validate:"required,max=255"`
	Latitude      *float64     `json:"lat,omitempty" validate:"omitempty,latitude"`
	Longitude     *float64     `json:"lng,omitempty" validate:"omitempty,longitude"`
	Severity      Severity     `json:"severity,omitempty" validate:"omitempty,oneof=low medium high critical"`
	Reporter      string       `json:"reporter,omitempty" validate:"omitempty,max=255"`
	ReporterPhone string       `json:"reporterPhone,omitempty" validate:"omitempty,max=32"`
	ReporterEmail string       `json:"reporterEmail,omitempty" validate:"omitempty,email"`
}

// IncidentPatch - частичное обновление; nil-поля не трогаются
type IncidentPatch struct {
	Title         *string       `json:"title,omitempty"`
	Type          *IncidentType `json:"type,omitempty"`
	Description   *string       `json:"description,omitempty"`
	Location      *string       `json:"location,omitempty"`
	Latitude      *float64      `json:"lat,omitempty"`
	Longitude     *float64      `json:"lng,omitempty"`
	Severity      *Severity     `json:"severity,omitempty"`
	Status        *Status       `json:"status,omitempty"`
	AssignedTo    *string       `json:"assignedTo,omitempty"`
	ReporterPhone *string       `json:"reporterPhone,omitempty"`
	ReporterEmail *string       `json:"reporterEmail,omitempty"`
}

// Apply накладывает патч на инцидент; заданные поля побеждают
func (p IncidentPatch) Apply(inc *Incident) {
	if p.Title != nil {
		inc.Title = *p.Title
	}
	if p.Type != nil {
		inc.Type = *p.Type
	}
	if p.Description != nil {
		inc.Description = *p.Description
	}
	if p.Location != nil {
		inc.Location = *p.Location
	}
	if p.Latitude != nil {
		inc.Latitude = p.Latitude
	}
	if p.Longitude != nil {
		inc.Longitude = p.Longitude
	}
	if p.Severity != nil {
		inc.Severity = *p.Severity
	}
	if p.Status != nil {
		inc.Status = *p.Status
	}
	if p.AssignedTo != nil {
		inc.AssignedTo = *p.AssignedTo
	}
	if p.ReporterPhone != nil {
		inc.ReporterPhone = *p.ReporterPhone
	}
	if p.ReporterEmail != nil {
		inc.ReporterEmail = *p.ReporterEmail
	}
}

// PublicReport - результат публичного обращения: запись плюс tracking id
type PublicReport struct {
	Incident   Incident `json:"incident"`
	TrackingID int64    `json:"trackingId"`
}

// ListFilter - фильтры списка инцидентов
type ListFilter struct {
	Status   Status
	Severity Severity
	Type     IncidentType
	Search   string
	Page     int
	PageSize int
}

// DashboardStats - агрегаты для панели мониторинга
type DashboardStats struct {
	Total         int                  `json:"total"`
	Open          int                  `json:"open"`
	Investigating int                  `json:"investigating"`
	Resolved      int                  `json:"resolved"`
	Last24Hours   int                  `json:"last24Hours"`
	BySeverity    map[Severity]int     `json:"bySeverity"`
	ByType        map[IncidentType]int `json:"byType"`
}
