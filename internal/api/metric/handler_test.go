package metric_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/api/metric"
	"mlbench-api-server/internal/models"
)

func newApp(f *fixture) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errors.Handler(zap.NewNop())})
	metric.MetricRouter(app.Group("/api/v1"), f.ms, zap.NewNop())
	return app
}

func TestMetricRouter(t *testing.T) {
	f := newFixture(t, nil)
	f.run(t, "run-1", "resnet", models.RunStarted)
	f.pod(t, "worker-0", nil)
	app := newApp(f)

	post := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/metrics", strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("post", func(t *testing.T) {
		resp := post(`{"run_id":"run-1","name":"loss","date":"2026-01-02T03:06:05Z","value":1.5,"cumulative":false}`)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var view map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.Equal(t, "loss", view["name"])
		assert.Equal(t, "1.5", view["value"])
		assert.Equal(t, "run-1", view["run_id"])
	})

	t.Run("post without owner", func(t *testing.T) {
		resp := post(`{"name":"loss","date":"2026-01-02T03:06:05Z","value":1.5,"cumulative":false}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "bad_request", body["kind"])
		assert.Equal(t, "Pod Name or run id have to be supplied", body["message"])
	})

	t.Run("post malformed", func(t *testing.T) {
		resp := post(`{"name":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("post unknown pod", func(t *testing.T) {
		resp := post(`{"pod_name":"ghost","name":"loss","date":"2026-01-02T03:06:05Z","value":1,"cumulative":false}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("retrieve", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics/run-1?metric_type=run&since=2026-01-02T03:05:05.000000Z", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var series metric.Series
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&series))
		assert.Len(t, series["loss"], 1)
	})

	t.Run("retrieve bad since", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics/run-1?metric_type=run&since=yesterday", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("retrieve unknown pod", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics/ghost", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("archive", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics/run-1?metric_type=run&format=zip", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/zip", resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, "attachment; filename=metrics_resnet.zip", resp.Header.Get(fiber.HeaderContentDisposition))

		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		files := unzip(t, data)
		assert.Len(t, files["result.json"]["loss"], 1)
	})

	t.Run("list all", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var all metric.AllMetrics
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
		assert.Contains(t, all.PodMetrics, "worker-0")
		assert.Len(t, all.RunMetrics["resnet"]["loss"], 1)
	})
}
