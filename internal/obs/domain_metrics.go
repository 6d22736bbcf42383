package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrderCreateTotal counts gateway order creation attempts by result.
	OrderCreateTotal *prometheus.CounterVec
	// PaymentVerifyTotal counts payment signature verification outcomes.
	PaymentVerifyTotal *prometheus.CounterVec
	// RegistrationTotal counts registration row creations by outcome.
	RegistrationTotal *prometheus.CounterVec
	// EmailDeliveriesTotal tracks transactional email delivery outcomes.
	EmailDeliveriesTotal *prometheus.CounterVec
	// EmailAttemptLatency records email delivery attempt latency in milliseconds.
	EmailAttemptLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrderCreateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_create_total",
			Help:      "Count of gateway order creation outcomes.",
		}, []string{"result"})
		PaymentVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verify_total",
			Help:      "Count of payment signature verification outcomes.",
		}, []string{"result"})
		RegistrationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_total",
			Help:      "Count of registration creations by outcome.",
		}, []string{"result"})
		EmailDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_deliveries_total",
			Help:      "Count of transactional email delivery outcomes.",
		}, []string{"kind", "result"})
		EmailAttemptLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_attempt_duration_ms",
			Help:      "Latency for email delivery attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})

		mustRegisterCollector(reg, OrderCreateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderCreateTotal = v
			}
		})
		mustRegisterCollector(reg, PaymentVerifyTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PaymentVerifyTotal = v
			}
		})
		mustRegisterCollector(reg, RegistrationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RegistrationTotal = v
			}
		})
		mustRegisterCollector(reg, EmailDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				EmailDeliveriesTotal = v
			}
		})
		mustRegisterCollector(reg, EmailAttemptLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				EmailAttemptLatency = v
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
