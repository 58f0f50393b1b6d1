// Package metrics 定义服务的 Prometheus 指标，全部注册在默认 registry 上
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fundchain"

// HTTPRequestsTotal 按路由、方法、状态码统计请求数
var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	},
	[]string{"route", "method", "status"},
)

// HTTPRequestDuration 请求耗时
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"route", "method"},
)

// StoreRefreshTotal 全量刷新次数，result 为 ok 或 error
var StoreRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_refresh_total",
		Help:      "Total number of full store refetches.",
	},
	[]string{"store", "result"},
)

// StoreRefreshDuration 全量刷新耗时
var StoreRefreshDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_refresh_duration_seconds",
		Help:      "Duration of full store refetches.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"store"},
)

// StoreItems 当前列表条数
var StoreItems = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_items",
		Help:      "Number of items in the current store list.",
	},
	[]string{"store"},
)

// StoreDroppedTotal 刷新时读取失败被丢弃的条目
var StoreDroppedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_dropped_total",
		Help:      "Total number of entries dropped because their read failed.",
	},
	[]string{"store"},
)

// CampaignsByStatus 各状态的项目数
var CampaignsByStatus = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "campaigns",
		Help:      "Number of campaigns by derived status.",
	},
	[]string{"status"},
)

// ContractEventsTotal 处理的链上事件
var ContractEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contract_events_total",
		Help:      "Total number of decoded contract events.",
	},
	[]string{"event"},
)

// MonitorBlock 事件监控下一次要处理的区块
var MonitorBlock = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "monitor_next_block",
		Help:      "Next block the event monitor will scan.",
	},
)

// TransactionsTotal 写交易结果，result 为 ok 或错误类别
var TransactionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_total",
		Help:      "Total number of contract writes by operation and result.",
	},
	[]string{"op", "result"},
)
