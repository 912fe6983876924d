package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	PerformanceHandler struct {
		validate *validator.Validate
		rewards  RewardService
		timeout  time.Duration
	}

	RewardService interface {
		Ingest(ctx context.Context, upd domain.PerformanceUpdate) (*domain.AdPerformanceRecord, *domain.RewardRecord, error)
		Sweep(ctx context.Context) (int, error)
		GetReward(ctx context.Context, adID string) (*domain.RewardRecord, error)
	}

	IngestResponse struct {
		Performance *domain.AdPerformanceRecord `json:"performance"`
		Reward      *domain.RewardRecord        `json:"reward,omitempty"`
	}

	SweepResponse struct {
		Completed int `json:"completed"`
	}
)

func NewPerformanceHandler(svc RewardService) *PerformanceHandler {
	return &PerformanceHandler{
		validate: validator.New(),
		rewards:  svc,
		timeout:  defaultTimeout,
	}
}

// POST /api/v1/performance
func (h *PerformanceHandler) Ingest(c echo.Context) error {
	var req domain.PerformanceUpdate
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		logger.Debug("performance_validation_failed", "ad_id", req.AdID, "error", err)
		return badRequest(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rec, rr, err := h.rewards.Ingest(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(IngestResponse{Performance: rec, Reward: rr}))
}

// POST /api/v1/admin/maturation/sweep
func (h *PerformanceHandler) Sweep(c echo.Context) error {
	n, err := h.rewards.Sweep(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(SweepResponse{Completed: n}))
}

// GET /api/v1/brands/:brand_id/rewards/:ad_id
func (h *PerformanceHandler) GetReward(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}
	adID := c.Param("ad_id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rr, err := h.rewards.GetReward(ctx, adID)
	if err != nil {
		return err
	}
	if rr.BrandID != brandID {
		return fmt.Errorf("%w: reward for ad %s", domain.ErrNotFound, adID)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(rr))
}
