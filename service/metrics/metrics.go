/*
 * @module service/metrics/metrics
 * @description 实体存储的 Prometheus 指标
 * @architecture 工具层
 * @rules 所有方法对 nil 接收者安全，未注入指标时存储照常工作
 * @dependencies github.com/prometheus/client_golang
 * @refs service/store/store.go, main.go
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector 存储指标集合
type Collector struct {
	saveFailures    *prometheus.CounterVec
	migrationWrites *prometheus.CounterVec
	loadResets      *prometheus.CounterVec
	records         *prometheus.GaugeVec
}

// NewCollector 创建并注册指标
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		saveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idc_store_save_failures_total",
			Help: "Number of failed writes to a persistence slot.",
		}, []string{"slot"}),
		migrationWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idc_store_migration_writes_total",
			Help: "Number of one-time migration writes performed on load.",
		}, []string{"slot"}),
		loadResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idc_store_load_resets_total",
			Help: "Number of loads that reset a slot because its payload was unreadable.",
		}, []string{"slot"}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "idc_store_records",
			Help: "Number of records currently held by a store.",
		}, []string{"slot"}),
	}
	if reg != nil {
		reg.MustRegister(c.saveFailures, c.migrationWrites, c.loadResets, c.records)
	}
	return c
}

func (c *Collector) SaveFailed(slot string) {
	if c == nil {
		return
	}
	c.saveFailures.WithLabelValues(slot).Inc()
}

func (c *Collector) MigrationWritten(slot string) {
	if c == nil {
		return
	}
	c.migrationWrites.WithLabelValues(slot).Inc()
}

func (c *Collector) LoadReset(slot string) {
	if c == nil {
		return
	}
	c.loadResets.WithLabelValues(slot).Inc()
}

func (c *Collector) SetRecords(slot string, n int) {
	if c == nil {
		return
	}
	c.records.WithLabelValues(slot).Set(float64(n))
}
