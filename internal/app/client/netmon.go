package client

import (
	"context"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"
)

// Prober проверяет доступность сервера одним запросом.
type Prober interface {
	HealthCheck(ctx context.Context) error
}

// Monitor — единственный источник правды о состоянии соединения.
// Периодически опрашивает сервер и уведомляет подписчиков при
// каждой смене состояния. Дребезг соединения не фильтруется:
// от лишних запусков синхронизации защищает guard движка.
type Monitor struct {
	prober   Prober
	log      *slog.Logger
	interval time.Duration

	mu        gosync.RWMutex
	online    bool
	listeners []func(online bool)

	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

func NewMonitor(prober Prober, log *slog.Logger, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		prober:   prober,
		log:      log.With("component", "netmon"),
		interval: interval,
	}
}

// Online возвращает последнее известное состояние соединения.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe регистрирует слушателя смены состояния. Слушатель
// вызывается только при переходах offline<->online, с новым значением.
func (m *Monitor) Subscribe(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Start выполняет первую проверку соединения и запускает цикл опроса.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	m.probe(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe(ctx)
			}
		}
	}()
}

// Stop останавливает цикл опроса и дожидается его завершения.
func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	online := m.prober.HealthCheck(probeCtx) == nil
	m.setOnline(online)
}

// setOnline фиксирует новое состояние и при смене уведомляет
// подписчиков. Уведомление выполняется вне блокировки.
func (m *Monitor) setOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]func(bool), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	if online {
		m.log.Info("Соединение с сервером восстановлено")
	} else {
		m.log.Warn("Соединение с сервером потеряно")
	}

	for _, fn := range listeners {
		fn(online)
	}
}
