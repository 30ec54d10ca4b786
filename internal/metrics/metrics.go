package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lingqian"

// CouponMetrics 优惠券引擎指标，nil 接收者上的调用均为空操作
type CouponMetrics struct {
	claims        *prometheus.CounterVec
	consumes      *prometheus.CounterVec
	claimDuration prometheus.Histogram
	catalogLoads  *prometheus.CounterVec
}

// NewCouponMetrics 创建并注册指标；reg 为 nil 时只创建不注册
func NewCouponMetrics(reg prometheus.Registerer) *CouponMetrics {
	m := &CouponMetrics{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coupon",
			Name:      "claims_total",
			Help:      "Coupon claim attempts by result.",
		}, []string{"result"}),
		consumes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coupon",
			Name:      "consumes_total",
			Help:      "Coupon consume attempts by result.",
		}, []string{"result"}),
		claimDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "coupon",
			Name:      "claim_duration_seconds",
			Help:      "Claim transaction latency including one serialization retry.",
			Buckets:   prometheus.DefBuckets,
		}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coupon",
			Name:      "catalog_loads_total",
			Help:      "Claimable catalog reads by source (cache, store).",
		}, []string{"source"}),
	}
	if reg != nil {
		reg.MustRegister(m.claims, m.consumes, m.claimDuration, m.catalogLoads)
	}
	return m
}

// ObserveClaim 记录一次领取
func (m *CouponMetrics) ObserveClaim(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(result).Inc()
	m.claimDuration.Observe(elapsed.Seconds())
}

// ObserveConsume 记录一次核销
func (m *CouponMetrics) ObserveConsume(result string) {
	if m == nil {
		return
	}
	m.consumes.WithLabelValues(result).Inc()
}

// ObserveCatalogLoad 记录目录读取来源
func (m *CouponMetrics) ObserveCatalogLoad(source string) {
	if m == nil {
		return
	}
	m.catalogLoads.WithLabelValues(source).Inc()
}
