package store

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartAutoRefresh запускает периодическую синхронизацию коллекции.
// Автообновление доступно только привилегированным сессиям: без токена
// фоновые опросы сервера не запускаются. Повторный вызов при уже
// запущенном расписании ничего не делает.
func (s *Store) StartAutoRefresh(ctx context.Context) {
	if s.cfg.APIToken == "" {
		s.logger.Debug("Auto refresh skipped: no API token configured")
		return
	}

	s.cronMu.Lock()
	defer s.cronMu.Unlock()
	if s.cron != nil {
		return
	}

	s.Refresh(ctx, nil)

	c := cron.New()
	schedule := fmt.Sprintf("@every %s", s.cfg.RefreshInterval)
	if _, err := c.AddFunc(schedule, func() {
		s.Refresh(ctx, nil)
	}); err != nil {
		s.logger.WithError(err).Error("Failed to schedule auto refresh")
		return
	}
	c.Start()
	s.cron = c

	s.logger.WithField("interval", s.cfg.RefreshInterval).Info("Auto refresh started")
}

// StopAutoRefresh детерминированно останавливает расписание; уже
// начавшийся refresh дорабатывает до конца
func (s *Store) StopAutoRefresh() {
	s.cronMu.Lock()
	defer s.cronMu.Unlock()
	if s.cron == nil {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.logger.Info("Auto refresh stopped")
}
