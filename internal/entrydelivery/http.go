// Package entrydelivery manages delivery layer of transaction history.
package entrydelivery

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

// Service provides service layer interface needed by entry delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package entrydelivery
type Service interface {
	List(ctx context.Context, userID int64, arg domain.ListEntriesParams) ([]domain.Entry, domain.Pagination, error)
	GetByReference(ctx context.Context, userID int64, reference string) (domain.Entry, error)
}

// Handler facilitates entry delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns entry handler.
func NewHandler(es Service) *Handler {
	return &Handler{
		service: es,
	}
}

type listRequest struct {
	Page   int32  `form:"page" binding:"omitempty,min=1"`
	Limit  int32  `form:"limit" binding:"omitempty,min=1,max=100"`
	Type   string `form:"type" binding:"omitempty,oneof=deposit withdrawal transfer payment refund commission"`
	Status string `form:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
}

type listResponse struct {
	Data struct {
		Entries    []domain.Entry    `json:"transactions"`
		Pagination domain.Pagination `json:"pagination"`
	} `json:"data,omitempty"`
}

// List handles http request to return one page of the caller's history.
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

	entries, pagination, err := h.service.List(ctx, authPayload.UserID, domain.ListEntriesParams{
		Page:   req.Page,
		Limit:  req.Limit,
		Type:   req.Type,
		Status: req.Status,
	})
	if err != nil {
		l.Info().Err(err).Send()

		if errors.Is(err, domain.ErrAccountNotFound) {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	var res listResponse
	res.Data.Entries = entries
	res.Data.Pagination = pagination

	gctx.JSON(http.StatusOK, res)
}

type getResponse struct {
	Data struct {
		Entry domain.Entry `json:"transaction"`
	} `json:"data,omitempty"`
}

// Get handles http request to return one entry by its reference number.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	authPayload := middleware.AuthPayload(gctx)

	entry, err := h.service.GetByReference(ctx, authPayload.UserID, gctx.Param("reference"))
	if err != nil {
		l.Info().Err(err).Send()

		switch {
		case errors.Is(err, domain.ErrEntryNotFound),
			errors.Is(err, domain.ErrAccountNotFound):
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))
		}

		return
	}

	var res getResponse
	res.Data.Entry = entry

	gctx.JSON(http.StatusOK, res)
}
