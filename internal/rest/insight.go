package rest

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"adaptiveCreative/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type (
	// InsightHandler serves the read side of the engine: element posteriors,
	// the scorer weight table, interactions and whitespace.
	InsightHandler struct {
		elements     ElementReader
		weights      WeightTable
		interactions InteractionLister
		whitespace   WhitespaceReader
		timeout      time.Duration
	}

	ElementReader interface {
		Score(ctx context.Context, brandID string, key domain.ElementKey) (domain.ElementScore, error)
		Elements(ctx context.Context, brandID string) ([]domain.CreativeElement, error)
	}

	WeightTable interface {
		Table(ctx context.Context, brandID string) ([]domain.ScorerWeightView, error)
	}

	InteractionLister interface {
		List(ctx context.Context, brandID string, all bool) ([]domain.InteractionEffect, error)
	}

	WhitespaceReader interface {
		Candidates(ctx context.Context, brandID string, limit int) ([]domain.WhitespaceCandidate, error)
	}
)

func NewInsightHandler(
	elements ElementReader,
	weights WeightTable,
	interactions InteractionLister,
	whitespace WhitespaceReader,
) *InsightHandler {
	return &InsightHandler{
		elements:     elements,
		weights:      weights,
		interactions: interactions,
		whitespace:   whitespace,
		timeout:      defaultTimeout,
	}
}

// GET /api/v1/brands/:brand_id/elements/:dimension/:value
func (h *InsightHandler) GetElement(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}
	key := domain.ElementKey{Dimension: c.Param("dimension"), Value: c.Param("value")}
	if key.Dimension == "" || key.Value == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "dimension and value are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	score, err := h.elements.Score(ctx, brandID, key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(score))
}

// GET /api/v1/brands/:brand_id/elements
func (h *InsightHandler) ListElements(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	elements, err := h.elements.Elements(ctx, brandID)
	if err != nil {
		return err
	}
	scores := make([]domain.ElementScore, 0, len(elements))
	for _, el := range elements {
		scores = append(scores, el.Score())
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Key.Less(scores[j].Key)
	})
	return c.JSON(http.StatusOK, fres.Response.StatusOK(scores))
}

// GET /api/v1/brands/:brand_id/scorer-weights
func (h *InsightHandler) ScorerWeights(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	table, err := h.weights.Table(ctx, brandID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(table))
}

// GET /api/v1/brands/:brand_id/interactions?all=true
func (h *InsightHandler) Interactions(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}
	all := false
	if raw := c.QueryParam("all"); raw != "" {
		if all, err = strconv.ParseBool(raw); err != nil {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid all"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	effects, err := h.interactions.List(ctx, brandID, all)
	if err != nil {
		return err
	}
	views := make([]domain.InteractionView, 0, len(effects))
	for _, e := range effects {
		views = append(views, e.View())
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(views))
}

// GET /api/v1/brands/:brand_id/whitespace?limit=10
func (h *InsightHandler) Whitespace(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	cands, err := h.whitespace.Candidates(ctx, brandID, limit)
	if err != nil {
		return err
	}
	if cands == nil {
		cands = []domain.WhitespaceCandidate{}
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(cands))
}
