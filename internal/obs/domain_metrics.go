package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts cart quote computations by outcome.
	QuoteTotal *prometheus.CounterVec
	// QuoteDuration records cart quote latency in milliseconds.
	QuoteDuration *prometheus.HistogramVec
	// QuoteSavingsTotal accumulates the discount amounts granted by quotes.
	QuoteSavingsTotal prometheus.Counter
	// CodeValidationTotal counts discount code validations by outcome.
	CodeValidationTotal *prometheus.CounterVec
	// ReservationTotal counts inventory reservation outcomes.
	ReservationTotal *prometheus.CounterVec
	// CacheTotal counts catalog cache lookups by outcome.
	CacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_quotes_total",
			Help:      "Count of cart quote computations by outcome.",
		}, []string{"result"})
		QuoteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_quote_duration_ms",
			Help:      "Latency for cart quote computations in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"result"})
		QuoteSavingsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_discount_amount_total",
			Help:      "Sum of discount amounts granted across quotes.",
		})
		CodeValidationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_code_validations_total",
			Help:      "Count of discount code validations by outcome.",
		}, []string{"result"})
		ReservationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inventory_reservations_total",
			Help:      "Count of inventory reservation outcomes.",
		}, []string{"result"})
		CacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog cache lookups by outcome.",
		}, []string{"result"})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				QuoteDuration = v
			}
		})
		mustRegisterCollector(reg, QuoteSavingsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				QuoteSavingsTotal = v
			}
		})
		mustRegisterCollector(reg, CodeValidationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CodeValidationTotal = v
			}
		})
		mustRegisterCollector(reg, ReservationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReservationTotal = v
			}
		})
		mustRegisterCollector(reg, CacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CacheTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
