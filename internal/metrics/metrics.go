// Package metrics описывает прометеевские метрики сервиса.
// Метрики регистрируются в переданном Registerer, а не в глобальном.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "swingcoach"

// Metrics — набор счётчиков и гистограмм. Нулевой указатель допустим:
// все методы на nil ничего не делают.
type Metrics struct {
	paymentsSubmitted  prometheus.Counter
	paymentsApproved   *prometheus.CounterVec
	entitlementChecks  *prometheus.CounterVec
	authLogins         *prometheus.CounterVec
	httpRequestSeconds *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		paymentsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_submitted_total",
			Help:      "Payment requests recorded in the ledger.",
		}),
		paymentsApproved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_approved_total",
			Help:      "Approve calls by outcome.",
		}, []string{"result"}),
		entitlementChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_checks_total",
			Help:      "Feature access decisions.",
		}, []string{"allowed"}),
		authLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"result"}),
		httpRequestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.paymentsSubmitted,
		m.paymentsApproved,
		m.entitlementChecks,
		m.authLogins,
		m.httpRequestSeconds,
	)
	return m
}

// PaymentSubmitted учитывает новую заявку.
func (m *Metrics) PaymentSubmitted() {
	if m == nil {
		return
	}
	m.paymentsSubmitted.Inc()
}

// PaymentApproved учитывает подтверждение; already — повторный вызов.
func (m *Metrics) PaymentApproved(already bool) {
	if m == nil {
		return
	}
	result := "approved"
	if already {
		result = "already_approved"
	}
	m.paymentsApproved.WithLabelValues(result).Inc()
}

// EntitlementChecked учитывает решение о доступе.
func (m *Metrics) EntitlementChecked(allowed bool) {
	if m == nil {
		return
	}
	m.entitlementChecks.WithLabelValues(strconv.FormatBool(allowed)).Inc()
}

// Login учитывает попытку входа: success, invalid_credentials, inactive, error.
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.authLogins.WithLabelValues(result).Inc()
}

// ObserveHTTP записывает длительность обработки запроса.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestSeconds.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
