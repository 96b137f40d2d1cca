package routes

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coversdk/gateway/middleware"
	"coversdk/sdk/cover"
	"coversdk/sdk/pricing"
)

const defaultCapacityPeriod = 30

func (h *handlers) quote(w http.ResponseWriter, r *http.Request) {
	var req cover.Request
	if err := h.decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, cover.Response{Error: &cover.Error{Message: err.Error()}})
		return
	}
	resp, err := h.quotes.Quote(r.Context(), req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "quote fault",
			slog.Any("error", err),
			slog.String("requestId", middleware.RequestIDFrom(r.Context())))
		writeJSON(w, http.StatusInternalServerError, cover.Response{Error: &cover.Error{Message: cover.SomethingWentWrong}})
		return
	}
	writeJSON(w, quoteStatus(resp), resp)
}

func quoteStatus(resp cover.Response) int {
	switch {
	case resp.Error == nil:
		return http.StatusOK
	case resp.Error.Message == cover.SomethingWentWrong:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func (h *handlers) getCapacity(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseUint(chi.URLParam(r, "productId"), 10, 32)
	if err != nil {
		writeBadRequest(w, errors.New("productId must be a non-negative integer"))
		return
	}
	if _, ok := h.catalog.Product(uint32(productID)); !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Errorf("product %d not found", productID))
		return
	}
	period := uint64(defaultCapacityPeriod)
	if raw := r.URL.Query().Get("period"); raw != "" {
		period, err = strconv.ParseUint(raw, 10, 32)
		if err != nil || period < cover.MinimumCoverPeriod || period > cover.MaximumCoverPeriod {
			writeBadRequest(w, fmt.Errorf("period must be between %d and %d days", cover.MinimumCoverPeriod, cover.MaximumCoverPeriod))
			return
		}
	}
	capacity, err := h.capacity.GetCapacity(r.Context(), uint32(productID), uint32(period))
	if err != nil {
		h.logger.WarnContext(r.Context(), "capacity lookup failed",
			slog.Uint64("productId", productID),
			slog.Any("error", err))
		var apiErr *pricing.APIError
		if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
			writeJSONError(w, apiErr.Status, errors.New(apiErr.Message))
			return
		}
		writeJSONError(w, http.StatusBadGateway, errors.New(cover.SomethingWentWrong))
		return
	}
	writeJSON(w, http.StatusOK, capacity)
}
