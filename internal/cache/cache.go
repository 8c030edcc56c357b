package cache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

// Бакеты bbolt: зеркало основной коллекции, отдельный бакет публичных
// обращений текущего пользователя и служебный бакет с tracking id.
var (
	bucketIncidents = []byte("incidents")
	bucketPublic    = []byte("public_incidents")
	bucketMeta      = []byte("meta")

	keyTrackingID = []byte("tracking_id")
)

// Cache - локальное долговечное хранилище, переживающее перезапуски.
// Повреждённые или отсутствующие записи трактуются как пустые и никогда
// не поднимаются как ошибки чтения наверх.
type Cache struct {
	db     *bolt.DB
	logger *logrus.Logger
}

// Open открывает (или создает) файл кэша и гарантирует наличие бакетов
func Open(path string, logger *logrus.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketIncidents, bucketPublic, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, logger: logger}, nil
}

// Close закрывает файл кэша
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveAll замещает зеркало коллекции целиком
func (c *Cache) SaveAll(incidents []models.Incident) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketIncidents); err != nil {
			return err
		}
		b, err := tx.CreateBucket(bucketIncidents)
		if err != nil {
			return err
		}
		for _, inc := range incidents {
			val, err := json.Marshal(inc)
			if err != nil {
				return err
			}
			if err := b.Put(idKey(inc.ID), val); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save incidents mirror: %w", err)
	}
	return nil
}

// LoadAll возвращает зеркало коллекции; пустой или битый кэш дает пустой слайс
func (c *Cache) LoadAll() []models.Incident {
	return c.loadBucket(bucketIncidents)
}

// SavePublicIncident добавляет запись в бакет публичных обращений
func (c *Cache) SavePublicIncident(inc models.Incident) error {
	val, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("failed to marshal public incident: %w", err)
	}
	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPublic).Put(idKey(inc.ID), val)
	})
	if err != nil {
		return fmt.Errorf("failed to save public incident: %w", err)
	}
	return nil
}

// LoadPublicIncidents возвращает публичные обращения текущего пользователя
func (c *Cache) LoadPublicIncidents() []models.Incident {
	return c.loadBucket(bucketPublic)
}

// SaveTrackingID сохраняет tracking id последнего публичного обращения
func (c *Cache) SaveTrackingID(id int64) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyTrackingID, idKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to save tracking id: %w", err)
	}
	return nil
}

// LoadTrackingID возвращает сохраненный tracking id; 0 и false, если его нет
func (c *Cache) LoadTrackingID() (int64, bool) {
	var id int64
	var ok bool
	_ = c.db.View(func(tx *bolt.Tx) error {
		val := tx.Bucket(bucketMeta).Get(keyTrackingID)
		if len(val) == 8 {
			id = int64(binary.BigEndian.Uint64(val))
			ok = true
		}
		return nil
	})
	return id, ok
}

// PatchIncident применяет частичное обновление к записи зеркала; используется
// как офлайн-фолбэк операции update
func (c *Cache) PatchIncident(id int64, patch models.IncidentPatch) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketIncidents)
		val := b.Get(idKey(id))
		if val == nil {
			return apperrors.NotFound(id)
		}
		var inc models.Incident
		if err := json.Unmarshal(val, &inc); err != nil {
			// Битая запись зеркала равносильна отсутствующей
			return apperrors.NotFound(id)
		}
		patch.Apply(&inc)
		updated, err := json.Marshal(inc)
		if err != nil {
			return err
		}
		return b.Put(idKey(id), updated)
	})
	return err
}

// DeleteIncident удаляет запись из зеркала и из публичного бакета
func (c *Cache) DeleteIncident(id int64) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketIncidents).Delete(idKey(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketPublic).Delete(idKey(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete incident %d from cache: %w", id, err)
	}
	return nil
}

func (c *Cache) loadBucket(name []byte) []models.Incident {
	incidents := make([]models.Incident, 0)
	_ = c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(name).ForEach(func(k, v []byte) error {
			var inc models.Incident
			if err := json.Unmarshal(v, &inc); err != nil {
				c.logger.WithError(err).WithField("bucket", string(name)).
					Warn("Skipping corrupt cache entry")
				return nil
			}
			incidents = append(incidents, inc)
			return nil
		})
	})
	return incidents
}

func idKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
