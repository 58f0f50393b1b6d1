// Package store 链上列表的本地镜像，每次都整体替换，不做增量修补
package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blues/fundchain/internal/logger"
	"github.com/blues/fundchain/internal/metrics"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
)

// mirror 通用的整体替换列表
type mirror[T any] struct {
	name string
	pool *ants.Pool

	mu       sync.RWMutex
	items    []T
	loadedAt time.Time
	loaded   bool

	refreshMu sync.Mutex
	dirty     atomic.Bool

	listenerMu sync.RWMutex
	listeners  []func([]T)
}

func newMirror[T any](name string, pool *ants.Pool) *mirror[T] {
	m := &mirror[T]{name: name, pool: pool}
	m.dirty.Store(true)
	return m
}

// list 返回当前列表的拷贝
func (m *mirror[T]) list() ([]T, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]T, len(m.items))
	copy(items, m.items)
	return items, m.loadedAt, m.loaded
}

func (m *mirror[T]) replace(items []T) {
	m.mu.Lock()
	m.items = items
	m.loadedAt = time.Now()
	m.loaded = true
	m.mu.Unlock()

	metrics.StoreItems.WithLabelValues(m.name).Set(float64(len(items)))

	m.listenerMu.RLock()
	listeners := m.listeners
	m.listenerMu.RUnlock()
	for _, fn := range listeners {
		snapshot := make([]T, len(items))
		copy(snapshot, items)
		fn(snapshot)
	}
}

func (m *mirror[T]) onReplace(fn func([]T)) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// refresh 串行执行 load 并整体替换，失败时保留旧列表并重新标脏
func (m *mirror[T]) refresh(ctx context.Context, load func(context.Context) ([]T, error)) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.dirty.Store(false)
	start := time.Now()
	items, err := load(ctx)
	metrics.StoreRefreshDuration.WithLabelValues(m.name).Observe(time.Since(start).Seconds())
	if err != nil {
		m.dirty.Store(true)
		metrics.StoreRefreshTotal.WithLabelValues(m.name, "error").Inc()
		return fmt.Errorf("failed to refresh %s: %w", m.name, err)
	}

	m.replace(items)
	metrics.StoreRefreshTotal.WithLabelValues(m.name, "ok").Inc()
	logger.Debug("Refreshed %s store: %d items in %s", m.name, len(items), time.Since(start))
	return nil
}

func (m *mirror[T]) invalidate() {
	m.dirty.Store(true)
}

func (m *mirror[T]) isDirty() bool {
	return m.dirty.Load()
}

// fanOut 在协程池上按地址并发读取，失败的条目记录日志后丢弃，结果保持地址顺序
func fanOut[T any](ctx context.Context, pool *ants.Pool, name string, addresses []common.Address, load func(context.Context, common.Address) (T, error)) []T {
	results := make([]T, len(addresses))
	ok := make([]bool, len(addresses))

	var wg sync.WaitGroup
	for i, address := range addresses {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			v, err := load(ctx, address)
			if err != nil {
				logger.Warn("Failed to load %s %s: %v", name, address.Hex(), err)
				return
			}
			results[i] = v
			ok[i] = true
		}
		if err := pool.Submit(task); err != nil {
			logger.Error("Failed to submit %s load task: %v", name, err)
			wg.Done()
		}
	}
	wg.Wait()

	out := make([]T, 0, len(addresses))
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}
	if dropped := len(addresses) - len(out); dropped > 0 {
		metrics.StoreDroppedTotal.WithLabelValues(name).Add(float64(dropped))
	}
	return out
}
