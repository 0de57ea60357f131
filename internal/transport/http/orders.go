package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// OrderReader looks up a finalized order by its code.
type OrderReader interface {
	GetOrder(ctx context.Context, code string) (domain.Order, error)
}

// HandleOrders serves GET /orders/{code}.
func HandleOrders(orders OrderReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		code := strings.Trim(strings.TrimPrefix(r.URL.Path, "/orders/"), "/")
		if code == "" || strings.Contains(code, "/") {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		order, err := orders.GetOrder(r.Context(), code)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		lines := make([]orderLineResponse, 0, len(order.Lines))
		for _, line := range order.Lines {
			lines = append(lines, orderLineResponse{
				ProductCode: line.ProductCode,
				Quantity:    line.Quantity,
			})
		}
		writeJSON(w, http.StatusOK, orderResponse{
			ID:        order.ID,
			Code:      order.Code,
			CartID:    order.CartID,
			Lines:     lines,
			CreatedAt: order.CreatedAt,
		})
	}
}
