package rest

import (
	"context"
	"net/http"

	"adaptiveCreative/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	AdminHandler struct {
		validate *validator.Validate
		batch    BatchRunner
		settings SettingsStore
	}

	BatchRunner interface {
		RunBrand(ctx context.Context, brandID string) (domain.BatchReport, error)
	}

	SettingsStore interface {
		GetSettings(ctx context.Context, brandID string) (domain.BrandSettings, bool, error)
		UpsertSettings(ctx context.Context, st domain.BrandSettings) error
	}

	SettingsRequest struct {
		TransferOptIn  bool `json:"transfer_opt_in"`
		BaselineWindow int  `json:"baseline_window" validate:"gte=0"`
	}
)

func NewAdminHandler(batch BatchRunner, settings SettingsStore) *AdminHandler {
	return &AdminHandler{
		validate: validator.New(),
		batch:    batch,
		settings: settings,
	}
}

// POST /api/v1/admin/batch/:brand_id/run
// Runs synchronously; the weekly scheduler uses the same runner.
func (h *AdminHandler) RunBatch(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}

	rep, err := h.batch.RunBrand(c.Request().Context(), brandID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(rep))
}

// GET /api/v1/admin/brands/:brand_id/settings
// A brand without a row gets the defaults.
func (h *AdminHandler) GetSettings(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}

	st, ok, err := h.settings.GetSettings(c.Request().Context(), brandID)
	if err != nil {
		return err
	}
	if !ok {
		st = domain.BrandSettings{BrandID: brandID}
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(st))
}

// PUT /api/v1/admin/brands/:brand_id/settings
func (h *AdminHandler) UpsertSettings(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}

	var req SettingsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err)
	}

	st := domain.BrandSettings{
		BrandID:        brandID,
		TransferOptIn:  req.TransferOptIn,
		BaselineWindow: req.BaselineWindow,
	}
	if err := h.settings.UpsertSettings(c.Request().Context(), st); err != nil {
		return err
	}

	st, _, err = h.settings.GetSettings(c.Request().Context(), brandID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(st))
}
