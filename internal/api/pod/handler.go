package pod

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PodHandler struct {
	ps     PodService
	logger *zap.Logger
}

func PodRouter(route fiber.Router, ps PodService, logger *zap.Logger) {
	handler := &PodHandler{
		ps:     ps,
		logger: logger,
	}

	route.Get("/pods", handler.getPods)
}

// @Summary 모든 worker pod 목록 제공
// @Produce json
// @Success 200 {array} models.Pod
// @Failure 500 {object} nil
// @Router /api/v1/pods [get]
func (h *PodHandler) getPods(c *fiber.Ctx) error {
	pods, err := h.ps.GetAllPod(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(pods)
}
