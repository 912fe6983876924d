package rest

import (
	"context"
	"net/http"
	"time"

	"adaptiveCreative/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	TransferHandler struct {
		validate *validator.Validate
		transfer TransferService
		timeout  time.Duration
	}

	TransferService interface {
		Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error)
	}
)

func NewTransferHandler(svc TransferService) *TransferHandler {
	return &TransferHandler{
		validate: validator.New(),
		transfer: svc,
		timeout:  defaultTimeout,
	}
}

// POST /api/v1/brands/:brand_id/transfer
// The path brand is the target that receives the seeds.
func (h *TransferHandler) Transfer(c echo.Context) error {
	brandID, err := brandParam(c)
	if err != nil {
		return err
	}

	var req domain.TransferRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err)
	}
	req.TargetBrandID = brandID

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.transfer.Transfer(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(res))
}
