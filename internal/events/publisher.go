package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/securewatch_sims/internal/models"
)

const (
	eventQueueKey = "incident_events"
)

// Типы событий жизненного цикла инцидента
const (
	EventCreated       = "incident.created"
	EventReported      = "incident.reported"
	EventUpdated       = "incident.updated"
	EventStatusChanged = "incident.status_changed"
	EventDeleted       = "incident.deleted"
)

// Event - событие, рассылаемое привилегированным live-слушателям
type Event struct {
	Type      string           `json:"type"`
	Incident  *models.Incident `json:"incident,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher - интерфейс для публикации событий
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher - реализация Publisher, использующая очередь в Redis
type RedisPublisher struct {
	redisClient *redis.Client
}

// NewRedisPublisher создает новый RedisPublisher
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{
		redisClient: client,
	}
}

// Publish публикует событие в очередь Redis
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal incident event: %w", err)
	}

	// LPUSH добавляет событие в левую часть списка (очереди)
	if err := p.redisClient.LPush(ctx, eventQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish incident event to Redis: %w", err)
	}
	return nil
}
