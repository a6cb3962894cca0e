package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbench-api-server/internal/database"
	"mlbench-api-server/internal/database/dbtest"
	"mlbench-api-server/internal/models"
)

func TestMigrate(t *testing.T) {
	db := dbtest.New(t)

	t.Run("seeds exactly one empty slot", func(t *testing.T) {
		var slots []models.ActiveRunSlot
		require.NoError(t, db.Find(&slots).Error)
		require.Len(t, slots, 1)
		assert.Equal(t, uint(models.ActiveRunSlotID), slots[0].ID)
		assert.Nil(t, slots[0].RunID)
	})

	t.Run("is idempotent", func(t *testing.T) {
		require.NoError(t, database.Migrate(db))

		var count int64
		require.NoError(t, db.Model(&models.ActiveRunSlot{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("metric without owner is rejected", func(t *testing.T) {
		err := db.Create(&models.Metric{Name: "loss", Value: "1"}).Error
		assert.Error(t, err)
	})
}

func TestNewConfig(t *testing.T) {
	t.Setenv("HOST", "db.internal")
	t.Setenv("DATABASE", "bench")

	config, err := database.NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "db.internal", config.Host)
	assert.Equal(t, "5432", config.Port)
	assert.Equal(t, "bench", config.DBName)
}
