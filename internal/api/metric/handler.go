package metric

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/errors"
	"mlbench-api-server/internal/api/common/query"
)

type MetricHandler struct {
	ms     MetricService
	logger *zap.Logger
}

func MetricRouter(route fiber.Router, ms MetricService, logger *zap.Logger) {
	handler := &MetricHandler{
		ms:     ms,
		logger: logger,
	}

	route.Get("/metrics", handler.getAllMetrics)
	route.Get("/metrics/:id", handler.getMetrics)
	route.Post("/metrics", handler.postMetric)
}

// @Summary pod, run 별 전체 metric 제공
// @Produce json
// @Success 200 {object} AllMetrics
// @Failure 500 {object} nil
// @Router /api/v1/metrics [get]
func (h *MetricHandler) getAllMetrics(c *fiber.Ctx) error {
	result, err := h.ms.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

// @Summary 특정 pod 또는 run 의 metric 제공
// @Description format=archive 이면 zip 파일로 제공
// @Produce json
// @Produce application/zip
// @Param id path string true "pod name or run id"
// @Param since query string false "UTC ISO 8601, exclusive"
// @Param metric_type query string false "pod or run"
// @Param format query string false "json or archive"
// @Success 200 {object} Series
// @Failure 400 {object} nil
// @Failure 404 {object} nil
// @Router /api/v1/metrics/{id} [get]
func (h *MetricHandler) getMetrics(c *fiber.Ctx) error {
	q, err := query.ParseAndValidate(c)
	if err != nil {
		return err
	}

	if q.Format == query.FormatArchive {
		archive, err := h.ms.Export(c.UserContext(), q)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/zip")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", archive.Filename))
		return c.Status(fiber.StatusOK).Send(archive.Data)
	}

	series, err := h.ms.Retrieve(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(series)
}

// @Summary worker 가 보낸 metric 저장
// @Accept json
// @Produce json
// @Param metric body IngestPayload true "metric"
// @Success 201 {object} MetricView
// @Failure 400 {object} nil
// @Failure 404 {object} nil
// @Router /api/v1/metrics [post]
func (h *MetricHandler) postMetric(c *fiber.Ctx) error {
	var payload IngestPayload
	if err := c.BodyParser(&payload); err != nil {
		return errors.BadRequestErr("invalid metric body: %v", err)
	}

	view, err := h.ms.Ingest(c.UserContext(), payload)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}
