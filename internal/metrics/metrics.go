package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation counters for the stock ledger and its consumers.
var (
	ReservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peachblossom_reservations_total",
		Help: "Successful hold adjustments.",
	})
	InsufficientStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peachblossom_insufficient_stock_total",
		Help: "Reservations rejected because available stock was exceeded.",
	})
	HoldsReclaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peachblossom_holds_reclaimed_total",
		Help: "Expired holds released by the reclaim sweep.",
	})
	CartsFinalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peachblossom_carts_finalized_total",
		Help: "Carts whose holds were committed to sales.",
	})
	CartsAbandonedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peachblossom_carts_abandoned_total",
		Help: "Carts whose holds were released without a sale.",
	})
	CodesGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peachblossom_codes_generated_total",
		Help: "Unique codes issued, by kind.",
	}, []string{"kind"})
	CodeCollisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "peachblossom_code_collisions_total",
		Help: "Code generation attempts rejected by the uniqueness constraint, by kind.",
	}, []string{"kind"})
	BulkAdjustmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "peachblossom_bulk_adjustments_total",
		Help: "Bulk stock update batches committed.",
	})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
