// Package requestdelivery manages delivery layer of money requests.
package requestdelivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/paisabook/paisabook/internal/domain"
	"github.com/paisabook/paisabook/internal/middleware"
	"github.com/paisabook/paisabook/pkg/errorspkg"
	"github.com/paisabook/paisabook/pkg/jsonresponse"
)

// Service provides service layer interface needed by request delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package requestdelivery
type Service interface {
	Create(ctx context.Context, requesterID int64, payerPhone, amount, description string) (domain.MoneyRequest, error)
	List(ctx context.Context, userID int64, pageSize, pageID int32) ([]domain.MoneyRequest, error)
	Pay(ctx context.Context, requestID, payerID int64, mpin string) (domain.MoneyRequest, domain.TransferTxResult, error)
	Decline(ctx context.Context, requestID, payerID int64) (domain.MoneyRequest, error)
	Cancel(ctx context.Context, requestID, requesterID int64) (domain.MoneyRequest, error)
}

// Handler facilitates money request delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns money request handler.
func NewHandler(rs Service) *Handler {
	return &Handler{
		service: rs,
	}
}

type createRequest struct {
	PayerPhone  string `json:"payer_phone" binding:"required,phone"`
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"max=140"`
}

type data struct {
	Request domain.MoneyRequest `json:"request"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Create handles http request to open a money request.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := middleware.AuthPayload(gctx)

	result, err := h.service.Create(ctx, authPayload.UserID, req.PayerPhone, req.Amount, req.Description)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(statusCode(err), jsonresponse.Error(responseErr(err)))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{result}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"omitempty,min=1"`
	PageSize int32 `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type listResponse struct {
	Data struct {
		Requests []domain.MoneyRequest `json:"requests"`
	} `json:"data,omitempty"`
}

// List handles http request to list the caller's money requests.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := middleware.AuthPayload(gctx)

	requests, err := h.service.List(ctx, authPayload.UserID, req.PageSize, req.PageID)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(statusCode(err), jsonresponse.Error(responseErr(err)))

		return
	}

	var res listResponse
	res.Data.Requests = requests

	gctx.JSON(http.StatusOK, res)
}

type payRequest struct {
	MPIN string `json:"mpin" binding:"required,len=4,numeric"`
}

type payResponse struct {
	Data struct {
		Request  domain.MoneyRequest     `json:"request"`
		Transfer domain.TransferTxResult `json:"transfer"`
	} `json:"data,omitempty"`
}

// Pay handles http request to settle a pending money request.
func (h *Handler) Pay(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	requestID, err := pathID(gctx)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))
		return
	}

	var req payRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := middleware.AuthPayload(gctx)

	request, txResult, err := h.service.Pay(ctx, requestID, authPayload.UserID, req.MPIN)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(statusCode(err), jsonresponse.Error(responseErr(err)))

		return
	}

	var res payResponse
	res.Data.Request = request
	res.Data.Transfer = txResult

	gctx.JSON(http.StatusOK, res)
}

// Decline handles http request to refuse a pending money request.
func (h *Handler) Decline(gctx *gin.Context) {
	h.transition(gctx, h.service.Decline)
}

// Cancel handles http request to withdraw a pending money request.
func (h *Handler) Cancel(gctx *gin.Context) {
	h.transition(gctx, h.service.Cancel)
}

func (h *Handler) transition(gctx *gin.Context, op func(ctx context.Context, requestID, userID int64) (domain.MoneyRequest, error)) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	requestID, err := pathID(gctx)
	if err != nil {
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))
		return
	}

	authPayload := middleware.AuthPayload(gctx)

	result, err := op(ctx, requestID, authPayload.UserID)
	if err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(statusCode(err), jsonresponse.Error(responseErr(err)))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{result}})
}

func pathID(gctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(gctx.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, errors.New("invalid request id")
	}

	return id, nil
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOwner),
		errors.Is(err, domain.ErrInvalidMPIN):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrRequestNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrRequestExpired):
		return http.StatusConflict
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
