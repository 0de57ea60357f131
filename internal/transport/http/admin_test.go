package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/app"
	"github.com/youngre511/PeachBlossom-eStore-sub004/internal/domain"
)

type stubProductCreator struct {
	product domain.Product
	err     error

	gotInput app.CreateProductInput
}

func (s *stubProductCreator) CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error) {
	s.gotInput = in
	return s.product, s.err
}

type stubFilteredUpdater struct {
	updated int
	err     error

	gotFilter domain.ProductFilter
	gotUpdate app.UpdateFunc
}

func (s *stubFilteredUpdater) ApplyFilteredUpdate(ctx context.Context, filter domain.ProductFilter, update app.UpdateFunc) (int, error) {
	s.gotFilter = filter
	s.gotUpdate = update
	return s.updated, s.err
}

func TestHandleCreateProduct(t *testing.T) {
	creator := &stubProductCreator{product: domain.Product{
		Code:          "PB23456789",
		Name:          "Peach Tea",
		Category:      "drinks",
		StockQuantity: 10,
	}}
	handler := HandleCreateProduct(creator)

	req := httptest.NewRequest(http.MethodPost, "/admin/products",
		strings.NewReader(`{"name": "Peach Tea", "category": "drinks", "stock_quantity": 10}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if creator.gotInput.Name != "Peach Tea" || creator.gotInput.StockQuantity != 10 {
		t.Fatalf("unexpected input: %+v", creator.gotInput)
	}

	var resp productResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "PB23456789" {
		t.Fatalf("expected minted code in response, got %q", resp.Code)
	}
	if resp.AvailableQuantity != 10 {
		t.Fatalf("expected available 10, got %d", resp.AvailableQuantity)
	}
}

func TestHandleCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"malformed body", `{"name":`, nil, http.StatusBadRequest, codeInvalidRequestBody},
		{"missing name", `{"stock_quantity": 5}`, domain.ErrNameRequired, http.StatusBadRequest, codeNameRequired},
		{"negative stock", `{"name": "x", "stock_quantity": -1}`, domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := HandleCreateProduct(&stubProductCreator{err: tt.serviceErr})
			req := httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Fatalf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestHandleStockAdjustments_Delta(t *testing.T) {
	stock := &stubFilteredUpdater{updated: 3}
	handler := HandleStockAdjustments(stock)

	req := httptest.NewRequest(http.MethodPost, "/admin/stock-adjustments",
		strings.NewReader(`{"filter": {"category": "drinks", "min_stock": 1}, "delta": -2}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stock.gotFilter.Category != "drinks" {
		t.Fatalf("expected category filter, got %+v", stock.gotFilter)
	}
	if stock.gotFilter.MinStock == nil || *stock.gotFilter.MinStock != 1 {
		t.Fatalf("expected min stock 1, got %+v", stock.gotFilter.MinStock)
	}
	if got := stock.gotUpdate(domain.Product{StockQuantity: 9}); got != -2 {
		t.Fatalf("expected delta -2 regardless of stock, got %d", got)
	}

	var resp stockAdjustmentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UpdatedCount != 3 {
		t.Fatalf("expected updated count 3, got %d", resp.UpdatedCount)
	}
}

func TestHandleStockAdjustments_Set(t *testing.T) {
	stock := &stubFilteredUpdater{updated: 1}
	handler := HandleStockAdjustments(stock)

	req := httptest.NewRequest(http.MethodPost, "/admin/stock-adjustments",
		strings.NewReader(`{"filter": {"code_prefix": "PB"}, "set": 20}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := stock.gotUpdate(domain.Product{StockQuantity: 12}); got != 8 {
		t.Fatalf("expected delta 8 to reach 20 from 12, got %d", got)
	}
	if got := stock.gotUpdate(domain.Product{StockQuantity: 25}); got != -5 {
		t.Fatalf("expected delta -5 to reach 20 from 25, got %d", got)
	}
}

func TestHandleStockAdjustments_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"neither delta nor set", `{"filter": {"category": "drinks"}}`},
		{"both delta and set", `{"filter": {}, "delta": 1, "set": 5}`},
		{"negative set", `{"filter": {}, "set": -1}`},
		{"malformed body", `{"filter":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := HandleStockAdjustments(&stubFilteredUpdater{})
			req := httptest.NewRequest(http.MethodPost, "/admin/stock-adjustments", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandleStockAdjustments_Underflow(t *testing.T) {
	handler := HandleStockAdjustments(&stubFilteredUpdater{err: domain.ErrStockUnderflow})

	req := httptest.NewRequest(http.MethodPost, "/admin/stock-adjustments",
		strings.NewReader(`{"filter": {}, "delta": -100}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeStockUnderflow {
		t.Fatalf("expected code %s, got %s", codeStockUnderflow, resp.Code)
	}
}
