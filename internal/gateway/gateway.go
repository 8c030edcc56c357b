package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/config"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Client - сетевой шлюз к REST API инцидентов. Единственное место, где
// живет распаковка конвертов ответа и нормализация ошибок; Store выше
// работает уже с доменными типами и таксономией apperrors.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient создает клиент API с ограничением частоты запросов
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   cfg.APIToken,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}
}

// List возвращает коллекцию инцидентов с необязательными фильтрами
func (c *Client) List(ctx context.Context, filters map[string]string) ([]models.Incident, error) {
	query := url.Values{}
	for k, v := range filters {
		query.Set(k, v)
	}
	data, err := c.do(ctx, http.MethodGet, "/incidents", query, nil, true)
	if err != nil {
		return nil, err
	}
	return decodeIncidentList(data)
}

// GetByID возвращает инцидент по id (аутентифицированный эндпоинт)
func (c *Client) GetByID(ctx context.Context, id int64) (*models.Incident, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/incidents/%d", id), nil, nil, true)
	if err != nil {
		return nil, withID(err, id)
	}
	return decodeIncident(data)
}

// GetByTrackingID возвращает инцидент по tracking id через публичный эндпоинт
func (c *Client) GetByTrackingID(ctx context.Context, trackingID int64) (*models.Incident, error) {
	data, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/incidents/track/%d", trackingID), nil, nil, false)
	if err != nil {
		return nil, withID(err, trackingID)
	}
	return decodeIncident(data)
}

// Create создает инцидент от имени аутентифицированного пользователя
func (c *Client) Create(ctx context.Context, draft models.IncidentDraft) (*models.Incident, error) {
	data, err := c.do(ctx, http.MethodPost, "/incidents", nil, draft, true)
	if err != nil {
		return nil, err
	}
	return decodeIncident(data)
}

// ReportPublic отправляет публичное обращение без аутентификации и
// возвращает созданную запись вместе с tracking id
func (c *Client) ReportPublic(ctx context.Context, draft models.IncidentDraft) (*models.Incident, int64, error) {
	data, err := c.do(ctx, http.MethodPost, "/incidents/public", nil, draft, false)
	if err != nil {
		return nil, 0, err
	}

	var env struct {
		Incident   *models.Incident `json:"incident"`
		Data       *models.Incident `json:"data"`
		TrackingID int64            `json:"trackingId"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("failed to decode public report response: %w", err)
	}
	inc := env.Incident
	if inc == nil {
		inc = env.Data
	}
	if inc == nil {
		return nil, 0, fmt.Errorf("public report response carries no incident")
	}
	trackingID := env.TrackingID
	if trackingID == 0 {
		// Сервер не вернул tracking id явно - выводим его из id записи
		trackingID = inc.ID
	}
	return inc, trackingID, nil
}

// Update отправляет частичное обновление и возвращает серверную версию записи
func (c *Client) Update(ctx context.Context, id int64, patch models.IncidentPatch) (*models.Incident, error) {
	data, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/incidents/%d", id), nil, patch, true)
	if err != nil {
		return nil, withID(err, id)
	}
	return decodeIncident(data)
}

// UpdateStatus дергает узкий PATCH-эндпоинт смены статуса
func (c *Client) UpdateStatus(ctx context.Context, id int64, status models.Status) (*models.Incident, error) {
	body := map[string]models.Status{"status": status}
	data, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/incidents/%d/status", id), nil, body, true)
	if err != nil {
		return nil, withID(err, id)
	}
	return decodeIncident(data)
}

// Delete удаляет инцидент; тело ответа не ожидается
func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/incidents/%d", id), nil, nil, true)
	return withID(err, id)
}

// DashboardStats возвращает агрегаты для панели мониторинга
func (c *Client) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	data, err := c.do(ctx, http.MethodGet, "/analytics/dashboard", nil, nil, true)
	if err != nil {
		return nil, err
	}

	var env struct {
		Data *models.DashboardStats `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && env.Data != nil {
		return env.Data, nil
	}
	var stats models.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard stats: %w", err)
	}
	return &stats, nil
}

// do выполняет HTTP-запрос и нормализует результат: транспортные сбои
// становятся NetworkError, не-2xx ответы - GatewayError с серверным
// сообщением, 404 - NotFoundError
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, auth bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Network(err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	// Content-Type выставляется только для JSON-тел; бинарные тела
	// (multipart) оставляют заголовок транспорту
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Network(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Network(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).Debug("API request failed")
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.NotFound(0)
		}
		return nil, apperrors.Gateway(resp.StatusCode, extractErrorMessage(data))
	}

	return data, nil
}

// withID подставляет запрошенный id в NotFound: do строит ошибку по коду
// ответа и сам id не знает
func withID(err error, id int64) error {
	var nf *apperrors.NotFoundError
	if errors.As(err, &nf) {
		return apperrors.NotFound(id)
	}
	return err
}

// extractErrorMessage достает серверное сообщение об ошибке, если оно есть
func extractErrorMessage(data []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Error != "" {
			return env.Error
		}
		if env.Message != "" {
			return env.Message
		}
	}
	return ""
}

// decodeIncidentList распаковывает любой из принятых конвертов списка:
// голый массив, {"incidents": [...]} или {"data": [...]}
func decodeIncidentList(data []byte) ([]models.Incident, error) {
	var bare []models.Incident
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	var env struct {
		Incidents []models.Incident `json:"incidents"`
		Data      []models.Incident `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode incident list: %w", err)
	}
	if len(env.Incidents) > 0 {
		return env.Incidents, nil
	}
	if len(env.Data) > 0 {
		return env.Data, nil
	}
	return []models.Incident{}, nil
}

// decodeIncident распаковывает {"incident": {...}}, {"data": {...}} или голый объект
func decodeIncident(data []byte) (*models.Incident, error) {
	var env struct {
		Incident *models.Incident `json:"incident"`
		Data     *models.Incident `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil {
		if env.Incident != nil {
			return env.Incident, nil
		}
		if env.Data != nil {
			return env.Data, nil
		}
	}

	var inc models.Incident
	if err := json.Unmarshal(data, &inc); err != nil {
		return nil, fmt.Errorf("failed to decode incident: %w", err)
	}
	return &inc, nil
}
