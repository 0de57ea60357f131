package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidQuantity     = "invalid_quantity"
	codeInvalidCode         = "invalid_code"
	codeNameRequired        = "name_required"
	codeCartRequired        = "cart_required"
	codeCartEmpty           = "cart_empty"
	codeProductNotFound     = "product_not_found"
	codeOrderNotFound       = "order_not_found"
	codeProductExists       = "product_already_exists"
	codeInsufficientStock   = "insufficient_stock"
	codeStockUnderflow      = "stock_underflow"
	codeGenerationExhausted = "code_space_exhausted"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps service errors onto the shared error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, codeInvalidCode, err.Error())
	case errors.Is(err, domain.ErrNameRequired):
		writeError(w, http.StatusBadRequest, codeNameRequired, err.Error())
	case errors.Is(err, domain.ErrCartRequired):
		writeError(w, http.StatusBadRequest, codeCartRequired, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrProductExists):
		writeError(w, http.StatusConflict, codeProductExists, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, domain.ErrStockUnderflow):
		writeError(w, http.StatusConflict, codeStockUnderflow, err.Error())
	case errors.Is(err, domain.ErrCartEmpty):
		writeError(w, http.StatusConflict, codeCartEmpty, err.Error())
	case errors.Is(err, domain.ErrGenerationExhausted):
		writeError(w, http.StatusServiceUnavailable, codeGenerationExhausted, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
