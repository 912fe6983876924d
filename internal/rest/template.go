package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"adaptiveCreative/business/scoring"
	"adaptiveCreative/domain"
	"adaptiveCreative/pkg/metrics"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	TemplateHandler struct {
		validate *validator.Validate
		scorer   TemplateRanker
		timeout  time.Duration
	}

	TemplateRanker interface {
		RankTemplates(ctx context.Context, brandID string, candidates []domain.TemplateCandidate, record bool) (*domain.Ranking, error)
	}

	CandidateRequest struct {
		TemplateID string             `json:"template_id" validate:"required"`
		Scores     map[string]float64 `json:"scores" validate:"required"`
	}

	RankRequest struct {
		Candidates []CandidateRequest `json:"candidates" validate:"dive"`
		Record     bool               `json:"record"`
	}
)

func NewTemplateHandler(svc TemplateRanker) *TemplateHandler {
	return &TemplateHandler{
		validate: validator.New(),
		scorer:   svc,
		timeout:  defaultTimeout,
	}
}

// POST /api/v1/brands/:brand_id/templates/rank
func (h *TemplateHandler) Rank(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.RankingLatency.Observe(time.Since(start).Seconds())
	}()

	brandID, err := brandParam(c)
	if err != nil {
		return err
	}

	var req RankRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err)
	}

	candidates := make([]domain.TemplateCandidate, 0, len(req.Candidates))
	for _, cr := range req.Candidates {
		cand, err := scoring.CandidateFromScores(cr.TemplateID, cr.Scores)
		if err != nil {
			return badRequest(c, err)
		}
		candidates = append(candidates, cand)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	ranking, err := h.scorer.RankTemplates(ctx, brandID, candidates, req.Record)
	if err != nil {
		return err
	}

	metrics.RankingRequests.WithLabelValues(strconv.FormatBool(ranking.ObservationID != nil)).Inc()
	return c.JSON(http.StatusOK, fres.Response.StatusOK(ranking))
}
