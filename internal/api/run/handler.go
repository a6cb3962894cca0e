package run

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mlbench-api-server/internal/api/common/errors"
)

type RunHandler struct {
	rs     RunService
	logger *zap.Logger
}

// RunRouter mounts the run routes. guard, when not nil, runs in front of
// every route that mutates runs.
func RunRouter(route fiber.Router, rs RunService, guard fiber.Handler, logger *zap.Logger) {
	handler := &RunHandler{
		rs:     rs,
		logger: logger,
	}

	mutating := func(h fiber.Handler) []fiber.Handler {
		if guard == nil {
			return []fiber.Handler{h}
		}
		return []fiber.Handler{guard, h}
	}

	route.Get("/runs", handler.getRuns)
	route.Get("/runs/:id", handler.getRun)
	route.Post("/runs", mutating(handler.postRun)...)
	route.Patch("/runs/:id", mutating(handler.patchRun)...)
	route.Delete("/runs/:id", mutating(handler.deleteRun)...)
}

// @Summary 모든 run 목록 제공 (생성 순)
// @Produce json
// @Success 200 {array} models.Run
// @Failure 500 {object} nil
// @Router /api/v1/runs [get]
func (h *RunHandler) getRuns(c *fiber.Ctx) error {
	runs, err := h.rs.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(runs)
}

// @Summary run 상세 정보와 job 상태 제공
// @Produce json
// @Param id path string true "run id"
// @Success 200 {object} RunView
// @Failure 404 {object} nil
// @Router /api/v1/runs/{id} [get]
func (h *RunHandler) getRun(c *fiber.Ctx) error {
	view, err := h.rs.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(view)
}

// @Summary run 생성 후 바로 시작
// @Accept json
// @Produce json
// @Param run body CreateRequest true "run"
// @Success 201 {object} models.Run
// @Failure 400 {object} nil
// @Failure 409 {object} nil
// @Failure 503 {object} nil
// @Router /api/v1/runs [post]
func (h *RunHandler) postRun(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.BadRequestErr("invalid run body: %v", err)
	}

	run, err := h.rs.CreateAndStart(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(run)
}

// @Summary STARTED run 을 FINISHED 또는 FAILED 로 변경
// @Accept json
// @Produce json
// @Param id path string true "run id"
// @Param state body FinishRequest true "state"
// @Success 200 {object} models.Run
// @Failure 400 {object} nil
// @Failure 404 {object} nil
// @Router /api/v1/runs/{id} [patch]
func (h *RunHandler) patchRun(c *fiber.Ctx) error {
	var req FinishRequest
	if err := c.BodyParser(&req); err != nil {
		return errors.BadRequestErr("invalid run body: %v", err)
	}

	run, err := h.rs.Finish(c.UserContext(), c.Params("id"), req.State)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(run)
}

// @Summary run 과 그 pod, metric 삭제
// @Param id path string true "run id"
// @Success 204
// @Failure 404 {object} nil
// @Router /api/v1/runs/{id} [delete]
func (h *RunHandler) deleteRun(c *fiber.Ctx) error {
	if err := h.rs.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
