package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/shenikar/securewatch_sims/internal/apperrors"
	"github.com/shenikar/securewatch_sims/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

// newTestCache открывает кэш во временном каталоге
func newTestCache(t *testing.T) *Cache {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	c, err := Open(filepath.Join(t.TempDir(), "incidents.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func testIncident(id int64, title string) models.Incident {
	return models.Incident{
		ID:       id,
		Title:    title,
		Type:     models.TypeTheft,
		Severity: models.SeverityMedium,
		Status:   models.StatusOpen,
	}
}

func TestSaveAll_LoadAll_Roundtrip(t *testing.T) {
	c := newTestCache(t)

	incidents := []models.Incident{
		testIncident(1, "Первый"),
		testIncident(2, "Второй"),
	}
	require.NoError(t, c.SaveAll(incidents))

	loaded := c.LoadAll()
	require.Len(t, loaded, 2)
	assert.Equal(t, "Первый", loaded[0].Title)
	assert.Equal(t, "Второй", loaded[1].Title)
}

func TestSaveAll_ReplacesMirrorWholesale(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.SaveAll([]models.Incident{testIncident(1, "Старый")}))
	require.NoError(t, c.SaveAll([]models.Incident{testIncident(2, "Новый")}))

	loaded := c.LoadAll()
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(2), loaded[0].ID)
}

func TestLoadAll_EmptyCache(t *testing.T) {
	c := newTestCache(t)
	assert.Empty(t, c.LoadAll())
}

func TestLoadAll_SkipsCorruptEntry(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.SaveAll([]models.Incident{testIncident(1, "Целая")}))

	// Портим одну запись напрямую в bbolt
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIncidents).Put(idKey(99), []byte("not json"))
	})
	require.NoError(t, err)

	loaded := c.LoadAll()
	require.Len(t, loaded, 1)
	assert.Equal(t, "Целая", loaded[0].Title)
}

func TestPublicIncidents_Roundtrip(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.SavePublicIncident(testIncident(100, "Публичное обращение")))

	loaded := c.LoadPublicIncidents()
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(100), loaded[0].ID)

	// Публичный бакет не смешивается с зеркалом коллекции
	assert.Empty(t, c.LoadAll())
}

func TestTrackingID_Roundtrip(t *testing.T) {
	c := newTestCache(t)

	_, ok := c.LoadTrackingID()
	assert.False(t, ok)

	require.NoError(t, c.SaveTrackingID(1756600000000))

	id, ok := c.LoadTrackingID()
	require.True(t, ok)
	assert.Equal(t, int64(1756600000000), id)
}

func TestPatchIncident_AppliesPatch(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.SaveAll([]models.Incident{testIncident(1, "До правки")}))

	title := "После правки"
	status := models.StatusResolved
	require.NoError(t, c.PatchIncident(1, models.IncidentPatch{Title: &title, Status: &status}))

	loaded := c.LoadAll()
	require.Len(t, loaded, 1)
	assert.Equal(t, "После правки", loaded[0].Title)
	assert.Equal(t, models.StatusResolved, loaded[0].Status)
}

func TestPatchIncident_NotFound(t *testing.T) {
	c := newTestCache(t)

	title := "Неважно"
	err := c.PatchIncident(42, models.IncidentPatch{Title: &title})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeleteIncident_RemovesFromBothBuckets(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.SaveAll([]models.Incident{testIncident(1, "Зеркало")}))
	require.NoError(t, c.SavePublicIncident(testIncident(1, "Публичный")))

	require.NoError(t, c.DeleteIncident(1))

	assert.Empty(t, c.LoadAll())
	assert.Empty(t, c.LoadPublicIncidents())
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	path := filepath.Join(t.TempDir(), "incidents.db")

	c, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, c.SaveAll([]models.Incident{testIncident(7, "Переживает перезапуск")}))
	require.NoError(t, c.Close())

	reopened, err := Open(path, logger)
	require.NoError(t, err)
	defer reopened.Close()

	loaded := reopened.LoadAll()
	require.Len(t, loaded, 1)
	assert.Equal(t, int64(7), loaded[0].ID)
}
