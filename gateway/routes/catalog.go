package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"coversdk/core/content"
	"coversdk/core/products"
)

type productResponse struct {
	products.Product
	ProductTypeName string              `json:"productTypeName"`
	RequiredContent content.Type        `json:"requiredContent,omitempty"`
	Commission      products.Commission `json:"commission"`
}

func (h *handlers) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "productId"), 10, 32)
	if err != nil {
		writeBadRequest(w, errors.New("productId must be a non-negative integer"))
		return
	}
	productID := uint32(id)
	product, ok := h.catalog.Product(productID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Errorf("product %d not found", productID))
		return
	}
	productType, err := h.catalog.ProductTypeOf(productID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, fmt.Errorf("product %d not found", productID))
		return
	}
	out := productResponse{
		Product:         product,
		ProductTypeName: productType.Name,
		Commission:      h.catalog.Commission(productType.ID),
	}
	if required, ok := h.catalog.RequiredContent(productID); ok {
		out.RequiredContent = required
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) listProductsByType(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "productTypeId"), 10, 32)
	if err != nil {
		writeBadRequest(w, errors.New("productTypeId must be a non-negative integer"))
		return
	}
	productType, ok := h.catalog.ProductType(uint32(id))
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Errorf("product type %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"productType": productType,
		"products":    h.catalog.ProductsByType(productType.ID),
	})
}
