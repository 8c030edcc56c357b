package v1

import "github.com/shenikar/securewatch_sims/internal/models"

// CreateRequestToDraft преобразует DTO создания в доменный черновик
func CreateRequestToDraft(dto CreateIncidentRequest) models.IncidentDraft {
	return models.IncidentDraft{
		Title:         dto.Title,
		Type:          models.IncidentType(dto.Type),
		Description:   dto.Description,
		Location:      dto.Location,
		Latitude:      dto.Latitude,
		Longitude:     dto.Longitude,
		Severity:      models.Severity(dto.Severity),
		Reporter:      dto.Reporter,
		ReporterPhone: dto.ReporterPhone,
		ReporterEmail: dto.ReporterEmail,
	}
}

// UpdateRequestToPatch преобразует DTO обновления в доменный патч
func UpdateRequestToPatch(dto UpdateIncidentRequest) models.IncidentPatch {
	patch := models.IncidentPatch{
		Title:       dto.Title,
		Description: dto.Description,
		Location:    dto.Location,
		Latitude:    dto.Latitude,
		Longitude:   dto.Longitude,
		AssignedTo:  dto.AssignedTo,
	}
	if dto.Type != nil {
		t := models.IncidentType(*dto.Type)
		patch.Type = &t
	}
	if dto.Severity != nil {
		s := models.Severity(*dto.Severity)
		patch.Severity = &s
	}
	if dto.Status != nil {
		st := models.Status(*dto.Status)
		patch.Status = &st
	}
	return patch
}

// ModelToIncidentResponse преобразует доменную модель в DTO для ответа
func ModelToIncidentResponse(model *models.Incident) *IncidentResponse {
	return &IncidentResponse{
		ID:            model.ID,
		CorrelationID: model.CorrelationID,
		Title:         model.Title,
		Type:          string(model.Type),
		Description:   model.Description,
		Location:      model.Location,
		Latitude:      model.Latitude,
		Longitude:     model.Longitude,
		Severity:      string(model.Severity),
		Status:        string(model.Status),
		Reporter:      model.Reporter,
		ReporterPhone: model.ReporterPhone,
		ReporterEmail: model.ReporterEmail,
		AssignedTo:    model.AssignedTo,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// ModelsToIncidentResponses преобразует слайс моделей в слайс DTO
func ModelsToIncidentResponses(incidents []models.Incident) []*IncidentResponse {
	responses := make([]*IncidentResponse, len(incidents))
	for i := range incidents {
		responses[i] = ModelToIncidentResponse(&incidents[i])
	}
	return responses
}
