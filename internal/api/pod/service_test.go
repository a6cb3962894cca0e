package pod_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mlbench-api-server/internal/api/pod"
	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/database/dbtest"
	"mlbench-api-server/internal/models"
)

func newService(t *testing.T) (pod.PodService, *gorm.DB) {
	db := dbtest.New(t)
	return pod.NewPodService(pod.NewPodRepository(db), zap.NewNop()), db
}

func TestPodService_Sync(t *testing.T) {
	ctx := context.Background()
	ps, db := newService(t)

	observed := []cluster.WorkerPod{
		{Name: "worker-1", IP: "10.0.0.2", Phase: "Pending", Labels: map[string]string{"run-id": "r1"}},
		{Name: "worker-0", IP: "10.0.0.1", Phase: "Running"},
	}

	t.Run("creates unknown pods", func(t *testing.T) {
		result, err := ps.Sync(ctx, "r1", observed)
		require.NoError(t, err)
		assert.Equal(t, pod.SyncResult{Created: 2}, result)

		pods, err := ps.GetAllPod(ctx)
		require.NoError(t, err)
		require.Len(t, pods, 2)
		assert.Equal(t, "worker-0", pods[0].Name)
		assert.Equal(t, "worker-1", pods[1].Name)
		assert.Equal(t, "r1", *pods[1].RunID)
		assert.Equal(t, map[string]string{"run-id": "r1"}, pods[1].Labels)
	})

	t.Run("refreshes phase only", func(t *testing.T) {
		observed[0].Phase = "Succeeded"
		observed[0].IP = "10.9.9.9"

		result, err := ps.Sync(ctx, "r1", observed)
		require.NoError(t, err)
		assert.Equal(t, pod.SyncResult{Refreshed: 1}, result)

		var stored models.Pod
		require.NoError(t, db.Where("name = ?", "worker-1").First(&stored).Error)
		assert.Equal(t, "Succeeded", stored.Phase)
		assert.Equal(t, "10.0.0.2", stored.IP)
	})

	t.Run("skips pods of another run", func(t *testing.T) {
		result, err := ps.Sync(ctx, "r2", observed[:1])
		require.NoError(t, err)
		assert.Equal(t, pod.SyncResult{Skipped: 1}, result)
	})
}

func TestPodRouter(t *testing.T) {
	ps, _ := newService(t)
	_, err := ps.Sync(context.Background(), "r1", []cluster.WorkerPod{{Name: "worker-0", Phase: "Running"}})
	require.NoError(t, err)

	app := fiber.New()
	pod.PodRouter(app.Group("/api/v1"), ps, zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/pods", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var pods []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pods))
	require.Len(t, pods, 1)
	assert.Equal(t, "worker-0", pods[0]["name"])
	assert.Equal(t, "Running", pods[0]["phase"])
	assert.Equal(t, "r1", pods[0]["run_id"])
}
