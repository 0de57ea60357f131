package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

// ProductCatalog is the read side of the product service.
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, code string) (domain.Product, error)
}

// AvailabilityReader reports the stock ledger snapshot for a single product.
type AvailabilityReader interface {
	Availability(ctx context.Context, productCode string) (domain.Product, error)
}

// HandleProducts routes the /products subtree:
//
//	GET /products                        list all products
//	GET /products/{code}/availability    sellable quantity for one product
func HandleProducts(catalog ProductCatalog, ledger AvailabilityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		trimmed := strings.TrimPrefix(r.URL.Path, "/products")
		trimmed = strings.Trim(trimmed, "/")
		switch {
		case trimmed == "":
			handleListProducts(w, r, catalog)
		case strings.HasSuffix(trimmed, "/availability"):
			code := strings.TrimSuffix(trimmed, "/availability")
			if code == "" || strings.Contains(code, "/") {
				writeError(w, http.StatusNotFound, codeNotFound, "not found")
				return
			}
			handleAvailability(w, r, ledger, code)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleListProducts(w http.ResponseWriter, r *http.Request, catalog ProductCatalog) {
	products, err := catalog.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items := make([]productResponse, 0, len(products))
	for _, p := range products {
		items = append(items, newProductResponse(p))
	}
	writeJSON(w, http.StatusOK, listProductsResponse{Products: items})
}

func handleAvailability(w http.ResponseWriter, r *http.Request, ledger AvailabilityReader, code string) {
	product, err := ledger.Availability(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		ProductCode:       product.Code,
		StockQuantity:     product.StockQuantity,
		HeldQuantity:      product.HeldQuantity,
		AvailableQuantity: product.Available(),
	})
}

func newProductResponse(p domain.Product) productResponse {
	return productResponse{
		Code:              p.Code,
		Name:              p.Name,
		Category:          p.Category,
		StockQuantity:     p.StockQuantity,
		HeldQuantity:      p.HeldQuantity,
		AvailableQuantity: p.Available(),
		CreatedAt:         p.CreatedAt,
	}
}

type productResponse struct {
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	Category          string    `json:"category,omitempty"`
	StockQuantity     int       `json:"stock_quantity"`
	HeldQuantity      int       `json:"held_quantity"`
	AvailableQuantity int       `json:"available_quantity"`
	CreatedAt         time.Time `json:"created_at"`
}

type listProductsResponse struct {
	Products []productResponse `json:"products"`
}

type availabilityResponse struct {
	ProductCode       string `json:"product_code"`
	StockQuantity     int    `json:"stock_quantity"`
	HeldQuantity      int    `json:"held_quantity"`
	AvailableQuantity int    `json:"available_quantity"`
}
