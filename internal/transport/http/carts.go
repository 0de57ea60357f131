package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// CartCoordinator is the slice of the cart service the handlers need.
type CartCoordinator interface {
	Reserve(ctx context.Context, cartID, productCode string, quantity int) (int, error)
	RemoveFromCart(ctx context.Context, cartID, productCode string) error
	AbandonCart(ctx context.Context, cartID string) error
}

// OrderPlacer finalizes a cart into an order.
type OrderPlacer interface {
	Checkout(ctx context.Context, cartID string) (domain.Order, error)
}

// HandleCarts routes the /carts/ subtree:
//
//	PUT    /carts/{cartID}/items/{productCode}  reserve quantity
//	DELETE /carts/{cartID}/items/{productCode}  remove from cart
//	POST   /carts/{cartID}/checkout             finalize into an order
//	DELETE /carts/{cartID}                      abandon cart
func HandleCarts(carts CartCoordinator, orders OrderPlacer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cartID, rest, ok := parseCartPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch {
		case len(rest) == 2 && rest[0] == "items":
			handleCartItem(w, r, carts, cartID, rest[1])
		case len(rest) == 1 && rest[0] == "checkout":
			handleCheckout(w, r, orders, cartID)
		case len(rest) == 0:
			handleCart(w, r, carts, cartID)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleCartItem(w http.ResponseWriter, r *http.Request, carts CartCoordinator, cartID, productCode string) {
	switch r.Method {
	case http.MethodPut:
		var req reserveRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, domain.ErrInvalidQuantity.Error())
			return
		}

		available, err := carts.Reserve(r.Context(), cartID, productCode, req.Quantity)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reserveResponse{
			CartID:            cartID,
			ProductCode:       productCode,
			Quantity:          req.Quantity,
			AvailableQuantity: available,
		})

	case http.MethodDelete:
		if err := carts.RemoveFromCart(r.Context(), cartID, productCode); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	}
}

func handleCheckout(w http.ResponseWriter, r *http.Request, orders OrderPlacer, cartID string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}

	order, err := orders.Checkout(r.Context(), cartID)
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
	writeJSON(w, http.StatusCreated, orderResponse{
		ID:        order.ID,
		Code:      order.Code,
		CartID:    order.CartID,
		Lines:     lines,
		CreatedAt: order.CreatedAt,
	})
}

func handleCart(w http.ResponseWriter, r *http.Request, carts CartCoordinator, cartID string) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	if err := carts.AbandonCart(r.Context(), cartID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseCartPath splits /carts/{cartID}[/...] into the cart id and the
// remaining segments.
func parseCartPath(path string) (cartID string, rest []string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/carts/")
	if trimmed == path || trimmed == "" {
		return "", nil, false
	}
	parts := strings.Split(strings.TrimSuffix(trimmed, "/"), "/")
	if parts[0] == "" {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type reserveRequest struct {
	Quantity int `json:"quantity"`
}

type reserveResponse struct {
	CartID            string `json:"cart_id"`
	ProductCode       string `json:"product_code"`
	Quantity          int    `json:"quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}

type orderLineResponse struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	Code      string              `json:"code"`
	CartID    string              `json:"cart_id"`
	Lines     []orderLineResponse `json:"lines"`
	CreatedAt time.Time           `json:"created_at"`
}
