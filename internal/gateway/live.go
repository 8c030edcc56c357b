package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/events"
)

// Live подключается к websocket-эндпоинту событий и отдает их каналом.
// Канал закрывается при отмене контекста или обрыве соединения.
func (c *Client) Live(ctx context.Context) (<-chan events.Event, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/incidents/live"

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, apperrors.Gateway(resp.StatusCode, "")
		}
		return nil, apperrors.Network(err)
	}
	out := make(chan events.Event)
	done := make(chan struct{})
	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event events.Event
			if err := json.Unmarshal(payload, &event); err != nil {
				c.logger.WithError(err).Debug("Skipping malformed live event")
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Закрываем соединение при отмене контекста, чтобы разблокировать
	// чтение; после естественного обрыва сторож завершается сразу
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	return out, nil
}
