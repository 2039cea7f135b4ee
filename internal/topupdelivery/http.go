// Package topupdelivery manages delivery layer of wallet top-ups.
//
// The gateway callback is authenticated by the user's bearer token; the
// idempotency of the credit itself lives in the service and repository.
package topupdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/internal/middleware"
	"github.com/paisabook/paisabook/pkg/errorspkg"
	"github.com/paisabook/paisabook/pkg/jsonresponse"
)

// Service provides service layer interface needed by top-up delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package topupdelivery
type Service interface {
	Confirm(ctx context.Context, arg domain.ConfirmTopUpParams) (domain.DepositTxResult, error)
}

// Handler facilitates top-up delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns top-up handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type confirmRequest struct {
	Amount        string `json:"amount" binding:"required"`
	ExternalRef   string `json:"external_ref" binding:"required"`
	Method        string `json:"method" binding:"required,oneof=upi card netbanking"`
	GatewayStatus string `json:"gateway_status" binding:"required"`
}

type response struct {
	Data struct {
		TopUp domain.DepositTxResult `json:"topup"`
	} `json:"data,omitempty"`
}

// Confirm handles the payment gateway confirmation callback.
func (h *Handler) Confirm(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req confirmRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := middleware.AuthPayload(gctx)

	result, err := h.service.Confirm(ctx, domain.ConfirmTopUpParams{
		UserID:        authPayload.UserID,
		Amount:        req.Amount,
		ExternalRef:   req.ExternalRef,
		Method:        req.Method,
		GatewayStatus: req.GatewayStatus,
	})
	if err != nil {
		l.Info().Err(err).Send()

		switch {
		case errors.Is(err, domain.ErrInvalidAmount),
			errors.Is(err, domain.ErrNegativeAmount):
			gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))
		case errors.Is(err, domain.ErrAccountNotFound):
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))
		}

		return
	}

	var res response
	res.Data.TopUp = result

	gctx.JSON(http.StatusOK, res)
}
