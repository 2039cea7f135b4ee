// Package accountdelivery manages delivery layer of wallet accounts.
package accountdelivery

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

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	GetByUserID(ctx context.Context, userID int64) (domain.Account, error)
}

// LimitService computes the caller's current limit usage.
type LimitService interface {
	GetUsage(ctx context.Context, userID int64) (domain.LimitUsage, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
	limits  LimitService
}

// NewHandler returns account handler.
func NewHandler(as Service, ls LimitService) *Handler {
	return &Handler{
		service: as,
		limits:  ls,
	}
}

type data struct {
	Account domain.Account `json:"account"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Get handles http request to return the caller's wallet account.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	authPayload := middleware.AuthPayload(gctx)

	account, err := h.service.GetByUserID(ctx, authPayload.UserID)
	if err != nil {
		l.Info().Err(err).Send()

		if errors.Is(err, domain.ErrAccountNotFound) {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{account}})
}

type limitsResponse struct {
	Data struct {
		Limits domain.LimitUsage `json:"limits"`
	} `json:"data,omitempty"`
}

// GetLimits handles http request to return the caller's limit usage.
func (h *Handler) GetLimits(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	authPayload := middleware.AuthPayload(gctx)

	usage, err := h.limits.GetUsage(ctx, authPayload.UserID)
	if err != nil {
		l.Info().Err(err).Send()

		if errors.Is(err, domain.ErrAccountNotFound) {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	var res limitsResponse
	res.Data.Limits = usage

	gctx.JSON(http.StatusOK, res)
}
