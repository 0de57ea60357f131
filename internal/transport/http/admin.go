package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/app"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

var (
	errDeltaOrSetRequired = errors.New("one of delta or set is required")
	errDeltaAndSet        = errors.New("delta and set are mutually exclusive")
	errNegativeSet        = errors.New("set must not be negative")
)

// ProductCreator is the admin side of the product service.
type ProductCreator interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
}

// FilteredUpdater applies a stock update to every product matching a filter.
type FilteredUpdater interface {
	ApplyFilteredUpdate(ctx context.Context, filter domain.ProductFilter, update app.UpdateFunc) (int, error)
}

// HandleCreateProduct serves POST /admin/products.
func HandleCreateProduct(products ProductCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createProductRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		product, err := products.CreateProduct(r.Context(), app.CreateProductInput{
			Name:          req.Name,
			Category:      req.Category,
			StockQuantity: req.StockQuantity,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, newProductResponse(product))
	}
}

// HandleStockAdjustments serves POST /admin/stock-adjustments. The request
// selects products by filter and either shifts stock by a delta or sets it
// to an absolute quantity; the batch applies to all matches or none.
func HandleStockAdjustments(stock FilteredUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req stockAdjustmentRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		update, err := req.updateFunc()
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, err.Error())
			return
		}

		updated, err := stock.ApplyFilteredUpdate(r.Context(), req.filter(), update)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stockAdjustmentResponse{UpdatedCount: updated})
	}
}

type createProductRequest struct {
	Name          string `json:"name"`
	Category      string `json:"category"`
	StockQuantity int    `json:"stock_quantity"`
}

type stockAdjustmentRequest struct {
	Filter struct {
		Category   string `json:"category"`
		CodePrefix string `json:"code_prefix"`
		MinStock   *int   `json:"min_stock"`
		MaxStock   *int   `json:"max_stock"`
	} `json:"filter"`
	Delta *int `json:"delta"`
	Set   *int `json:"set"`
}

func (req stockAdjustmentRequest) filter() domain.ProductFilter {
	return domain.ProductFilter{
		Category:   req.Filter.Category,
		CodePrefix: req.Filter.CodePrefix,
		MinStock:   req.Filter.MinStock,
		MaxStock:   req.Filter.MaxStock,
	}
}

func (req stockAdjustmentRequest) updateFunc() (app.UpdateFunc, error) {
	switch {
	case req.Delta != nil && req.Set != nil:
		return nil, errDeltaAndSet
	case req.Delta != nil:
		delta := *req.Delta
		return func(domain.Product) int { return delta }, nil
	case req.Set != nil:
		target := *req.Set
		if target < 0 {
			return nil, errNegativeSet
		}
		return func(p domain.Product) int { return target - p.StockQuantity }, nil
	default:
		return nil, errDeltaOrSetRequired
	}
}

type stockAdjustmentResponse struct {
	UpdatedCount int `json:"updated_count"`
}
