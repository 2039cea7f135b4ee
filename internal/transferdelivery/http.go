// Package transferdelivery manages delivery layer of transfers.
package transferdelivery

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

// Service provides service layer interface needed by transfer delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package transferdelivery
type Service interface {
	Transfer(ctx context.Context, senderUserID int64, tier domain.AuthTier, arg domain.CreateTransferParams) (domain.TransferTxResult, error)
	RequestOTP(ctx context.Context, userID int64) error
}

// Handler facilitates transfer delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns transfer handler.
func NewHandler(ts Service) *Handler {
	return &Handler{
		service: ts,
	}
}

type request struct {
	RecipientPhone string `json:"recipient_phone" binding:"required,phone"`
	Amount         string `json:"amount" binding:"required"`
	Description    string `json:"description" binding:"max=140"`
	Proof          string `json:"proof" binding:"required,numeric"`
}

type data struct {
	Transfer domain.TransferTxResult `json:"transfer"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Create handles http request to create a basic-tier transfer.
func (h *Handler) Create(gctx *gin.Context) {
	h.transfer(gctx, domain.TierBasic)
}

// CreateSecure handles http request to create a secure-tier transfer.
func (h *Handler) CreateSecure(gctx *gin.Context) {
	h.transfer(gctx, domain.TierSecure)
}

// RequestOTP handles http request to issue a one-time code for a secure-tier
// transfer.
func (h *Handler) RequestOTP(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	authPayload := middleware.AuthPayload(gctx)

	if err := h.service.RequestOTP(ctx, authPayload.UserID); err != nil {
		l.Info().Err(err).Send()

		if errors.Is(err, domain.ErrUserNotFound) {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusAccepted, gin.H{})
}

func (h *Handler) transfer(gctx *gin.Context, tier domain.AuthTier) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := middleware.AuthPayload(gctx)

	arg := domain.CreateTransferParams{
		RecipientPhone: req.RecipientPhone,
		Amount:         req.Amount,
		Description:    req.Description,
		Proof:          req.Proof,
		Device:         gctx.GetHeader("X-Device-ID"),
		IP:             gctx.ClientIP(),
	}

	result, err := h.service.Transfer(ctx, authPayload.UserID, tier, arg)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(statusCode(err), jsonresponse.Error(responseErr(err)))

		return
	}

	res := response{
		Data: data{result},
	}

	gctx.JSON(http.StatusOK, res)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidMPIN),
		errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrSelfTransfer),
		errors.Is(err, domain.ErrAccountInactive),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrTierCeilingExceeded),
		errors.Is(err, domain.ErrLimitExceeded):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func responseErr(err error) error {
	if statusCode(err) == http.StatusInternalServerError {
		return errorspkg.ErrInternal
	}

	return err
}
