package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/config"
	"github.com/shenikar/securewatch_sims/internal/events"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient создает клиент, направленный на тестовый сервер
func newTestClient(baseURL, token string) *Client {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	cfg := &config.Config{
		APIBaseURL:        baseURL,
		APIToken:          token,
		RequestTimeout:    2 * time.Second,
		RequestsPerSecond: 100,
	}
	return NewClient(cfg, logger)
}

func TestList_BareArrayEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"title":"Кража"},{"id":2,"title":"Пожар"}]`))
	}))
	defer srv.Close()

	incidents, err := newTestClient(srv.URL, "").List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, incidents, 2)
	assert.Equal(t, "Кража", incidents[0].Title)
}

func TestList_IncidentsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"incidents":[{"id":5,"title":"Проникновение"}]}`))
	}))
	defer srv.Close()

	incidents, err := newTestClient(srv.URL, "").List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, int64(5), incidents[0].ID)
}

func TestList_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":9,"title":"Медицинский"}]}`))
	}))
	defer srv.Close()

	incidents, err := newTestClient(srv.URL, "").List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, int64(9), incidents[0].ID)
}

func TestList_SendsBearerTokenAndFilters(t *testing.T) {
	var gotAuth, gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotStatus = r.URL.Query().Get("status")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "secret-token").List(context.Background(), map[string]string{"status": "open"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "open", gotStatus)
}

func TestGetByID_UnwrapsIncidentEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"incident":{"id":3,"title":"В конверте"}}`))
	}))
	defer srv.Close()

	inc, err := newTestClient(srv.URL, "").GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "В конверте", inc.Title)
}

func TestGetByID_BareObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":3,"title":"Голый объект"}`))
	}))
	defer srv.Close()

	inc, err := newTestClient(srv.URL, "").GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Голый объект", inc.Title)
}

func TestGetByID_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"incident not found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "").GetByID(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "incident 404 not found", "NotFound must carry the requested id")
}

func TestDo_ServerError_CarriesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database on fire"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "").List(context.Background(), nil)
	require.Error(t, err)

	var gwErr *apperrors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusInternalServerError, gwErr.StatusCode)
	assert.Contains(t, gwErr.Error(), "database on fire")
}

func TestDo_UnreachableServer_IsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // сервер уже закрыт

	_, err := newTestClient(srv.URL, "").List(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
}

func TestReportPublic_ReturnsTrackingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "public report must not carry a token")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"incident":{"id":77,"title":"Публичное"},"trackingId":77}`))
	}))
	defer srv.Close()

	inc, trackingID, err := newTestClient(srv.URL, "").ReportPublic(context.Background(), models.IncidentDraft{
		Title:    "Публичное",
		Type:     models.TypeOther,
		Location: "Где-то",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), trackingID)
	assert.Equal(t, int64(77), inc.ID)
}

func TestReportPublic_DerivesTrackingIDFromIncident(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":88,"title":"Без trackingId"}}`))
	}))
	defer srv.Close()

	_, trackingID, err := newTestClient(srv.URL, "").ReportPublic(context.Background(), models.IncidentDraft{
		Title:    "Без trackingId",
		Type:     models.TypeOther,
		Location: "Где-то",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(88), trackingID)
}

func TestUpdateStatus_SendsPatchBody(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		buf := new(bytes.Buffer)
		buf.ReadFrom(r.Body)
		gotBody = buf.String()
		w.Write([]byte(`{"id":1,"status":"resolved"}`))
	}))
	defer srv.Close()

	inc, err := newTestClient(srv.URL, "token").UpdateStatus(context.Background(), 1, models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.JSONEq(t, `{"status":"resolved"}`, gotBody)
	assert.Equal(t, models.StatusResolved, inc.Status)
}

func TestDashboardStats_DataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"total":10,"open":4}}`))
	}))
	defer srv.Close()

	stats, err := newTestClient(srv.URL, "token").DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Open)
}

func TestLive_ClosesChannelWhenConnectionDrops(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		payload, _ := json.Marshal(events.Event{Type: events.EventCreated, Timestamp: time.Now()})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
		conn.Close()
	}))
	defer srv.Close()

	// Контекст живет дольше соединения: канал обязан закрыться сам
	ch, err := newTestClient(srv.URL, "token").Live(context.Background())
	require.NoError(t, err)

	event, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, events.EventCreated, event.Type)

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "event channel must close after the connection drops")
	case <-time.After(2 * time.Second):
		t.Fatal("event channel did not close after the connection dropped")
	}
}
