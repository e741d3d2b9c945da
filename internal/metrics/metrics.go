// Package metrics Prometheus 指标导出
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有目录服务指标
type Metrics struct {
	// 存储层指标
	StoreOpsTotal    *prometheus.CounterVec
	StoreOpDuration  *prometheus.HistogramVec
	StoreErrorsTotal *prometheus.CounterVec

	// 对象存储指标
	BlobOpsTotal   *prometheus.CounterVec
	BlobOpDuration *prometheus.HistogramVec

	// 业务指标
	EnrollmentsTotal *prometheus.GaugeVec
	CoursesTotal     *prometheus.GaugeVec
	UsersTotal       prometheus.Gauge

	// 变更总线指标
	ChangesPublished *prometheus.CounterVec
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		StoreOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total storage operations",
			},
			[]string{"operation", "backend"},
		),
		StoreOpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"operation", "backend"},
		),
		StoreErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total storage operation errors",
			},
			[]string{"operation", "backend"},
		),
		BlobOpsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blob_operations_total",
				Help:      "Total blob store operations",
			},
			[]string{"action"},
		),
		BlobOpDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "blob_operation_duration_seconds",
				Help:      "Blob store operation duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"action"},
		),
		EnrollmentsTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "enrollments_total",
				Help:      "Total enrollments by status",
			},
			[]string{"status"},
		),
		CoursesTotal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "courses_total",
				Help:      "Total courses by status",
			},
			[]string{"status"},
		),
		UsersTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "users_total",
				Help:      "Total registered users",
			},
		),
		ChangesPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "changes_published_total",
				Help:      "Total change events published",
			},
			[]string{"collection", "type"},
		),
	}
}

// Handler 返回 Prometheus HTTP Handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordStoreOp 记录存储操作指标
func (m *Metrics) RecordStoreOp(operation, backend string, duration time.Duration, err error) {
	m.StoreOpsTotal.WithLabelValues(operation, backend).Inc()
	m.StoreOpDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrorsTotal.WithLabelValues(operation, backend).Inc()
	}
}

// RecordBlobOp 记录对象存储操作指标
func (m *Metrics) RecordBlobOp(action string, duration time.Duration) {
	m.BlobOpsTotal.WithLabelValues(action).Inc()
	m.BlobOpDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordChangePublished 记录变更事件发布
func (m *Metrics) RecordChangePublished(collection, changeType string) {
	m.ChangesPublished.WithLabelValues(collection, changeType).Inc()
}

// SetEnrollmentsCount 设置选课数量
func (m *Metrics) SetEnrollmentsCount(status string, count int) {
	m.EnrollmentsTotal.WithLabelValues(status).Set(float64(count))
}

// SetCoursesCount 设置课程数量
func (m *Metrics) SetCoursesCount(status string, count int) {
	m.CoursesTotal.WithLabelValues(status).Set(float64(count))
}

// SetUsersCount 设置用户数量
func (m *Metrics) SetUsersCount(count int) {
	m.UsersTotal.Set(float64(count))
}
