package client

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"logisync/internal/domain/cache"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/session"
	"logisync/internal/domain/sync"
)

// SyncConfig — конфигурация движка синхронизации.
type SyncConfig struct {
	Interval         time.Duration `json:"interval"`           // период фонового таймера
	MaxCycleRetries  int           `json:"max_cycle_retries"`  // повторы цикла с backoff
	MaxRecordRetries int           `json:"max_record_retries"` // попыток на запись до dead
	BackoffBase      time.Duration `json:"backoff_base"`       // задержка = 2^n * base
	CacheTTL         time.Duration `json:"cache_ttl"`
}

// DefaultSyncConfig возвращает конфигурацию по умолчанию.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Interval:         5 * time.Minute,
		MaxCycleRetries:  3,
		MaxRecordRetries: 5,
		BackoffBase:      time.Second,
		CacheTTL:         cache.DefaultTTL,
	}
}

// SyncEngine управляет протоколом сверки с сервером: периодические и
// событийные циклы, отправка каждой записи, повтор с backoff, статус.
type SyncEngine struct {
	storage Storage
	api     RemoteAPI
	monitor *Monitor
	log     *slog.Logger
	config  SyncConfig

	mu             gosync.Mutex
	isOnline       bool
	syncInProgress bool
	retryCount     int
	lastSync       time.Time
	retryTimer     *time.Timer

	// onCycleDone вызывается после завершения каждого цикла,
	// чтобы фасад обновил реактивный снимок.
	onCycleDone func()

	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// NewSyncEngine создает движок синхронизации.
func NewSyncEngine(storage Storage, api RemoteAPI, monitor *Monitor, log *slog.Logger, config SyncConfig) *SyncEngine {
	if config.Interval <= 0 {
		config.Interval = 5 * time.Minute
	}
	if config.MaxCycleRetries <= 0 {
		config.MaxCycleRetries = 3
	}
	if config.MaxRecordRetries <= 0 {
		config.MaxRecordRetries = 5
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = cache.DefaultTTL
	}

	return &SyncEngine{
		storage: storage,
		api:     api,
		monitor: monitor,
		log:     log.With("component", "sync_engine"),
		config:  config,
	}
}

// Initialize подписывается на монитор сети, считывает начальное
// состояние соединения и запускает периодический таймер.
func (e *SyncEngine) Initialize(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.monitor.Subscribe(func(online bool) {
		e.mu.Lock()
		e.isOnline = online
		e.mu.Unlock()

		// Восстановление соединения — повод отправить накопленное
		if online {
			e.TriggerSync()
		}
	})

	e.mu.Lock()
	e.isOnline = e.monitor.Online()
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		ticker := time.NewTicker(e.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.TriggerSync()
			}
		}
	}()
}

// Destroy останавливает таймер и отложенные повторы. Уже идущий цикл
// не прерывается — отменяется только будущее планирование.
func (e *SyncEngine) Destroy() {
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Lock()
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
	e.mu.Unlock()
	e.wg.Wait()
}

// beginCycle пытается занять единственный слот цикла. Возвращает
// false, если устройство офлайн или цикл уже идет: такой запуск
// отбрасывается, а не ставится в очередь.
func (e *SyncEngine) beginCycle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isOnline || e.syncInProgress {
		return false
	}
	e.syncInProgress = true
	return true
}

func (e *SyncEngine) endCycle(success bool) {
	e.mu.Lock()
	if success {
		e.retryCount = 0
		e.lastSync = time.Now()
	}
	e.syncInProgress = false
	e.mu.Unlock()

	if e.onCycleDone != nil {
		e.onCycleDone()
	}
}

// TriggerSync — автоматический запуск цикла (таймер, восстановление
// сети). Ошибки цикла не возвращаются: они уходят в backoff и после
// исчерпания попыток гасятся.
func (e *SyncEngine) TriggerSync() {
	if !e.beginCycle() {
		return
	}

	go func() {
		_, err := e.runCycle(context.Background())
		e.endCycle(err == nil)

		if err != nil {
			e.scheduleRetry(err)
		}
	}()
}

// ManualSync — явный запуск пользователем. Офлайн — немедленная
// ошибка без постановки в очередь; ошибка цикла пробрасывается
// вызывающему, чтобы UI мог ее показать.
func (e *SyncEngine) ManualSync(ctx context.Context) (*sync.Result, error) {
	e.mu.Lock()
	if !e.isOnline {
		e.mu.Unlock()
		return nil, sync.ErrNetworkUnavailable
	}
	if e.syncInProgress {
		e.mu.Unlock()
		return nil, sync.ErrSyncInProgress
	}
	e.syncInProgress = true
	e.mu.Unlock()

	result, err := e.runCycle(ctx)
	e.endCycle(err == nil)
	return result, err
}

// scheduleRetry обрабатывает ошибку, вышедшую за пределы цикла:
// экспоненциальный backoff, после исчерпания попыток — тихий отказ
// до следующего естественного запуска.
func (e *SyncEngine) scheduleRetry(cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.retryCount++
	if e.retryCount >= e.config.MaxCycleRetries {
		e.log.Error("Синхронизация не удалась после всех попыток",
			"retries", e.retryCount,
			"error", cause,
		)
		e.retryCount = 0
		return
	}

	delay := e.config.BackoffBase * (1 << uint(e.retryCount))
	e.log.Warn("Цикл синхронизации завершился ошибкой, повтор отложен",
		"delay", delay,
		"retry", e.retryCount,
		"error", cause,
	)

	e.retryTimer = time.AfterFunc(delay, func() {
		// К моменту срабатывания соединение могло пропасть
		e.TriggerSync()
	})
}

// runCycle выполняет один цикл: общая очередь, складские операции,
// транспортные операции, обновление кеша справочников, чистка
// просроченного кеша. Ошибка отдельной записи не прерывает ни свою
// фазу, ни последующие.
func (e *SyncEngine) runCycle(ctx context.Context) (*sync.Result, error) {
	result := &sync.Result{StartTime: time.Now()}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		result.Success = len(result.Errors) == 0
	}()

	sess, err := e.storage.LastUserSession()
	if errors.Is(err, session.ErrNotFound) {
		// Нечего синхронизировать — это не ошибка
		e.log.Debug("Нет активной сессии, цикл пропущен")
		return result, nil
	}
	if err != nil {
		return result, &sync.CycleError{Phase: "session", Err: err}
	}

	e.log.Info("Начало цикла синхронизации", "user_id", sess.UserID)

	if err := e.syncPendingQueue(ctx, result); err != nil {
		return result, err
	}
	if err := e.syncWarehouseOperations(ctx, sess.UserID, result); err != nil {
		return result, err
	}
	if err := e.syncTransportOperations(ctx, sess.UserID, result); err != nil {
		return result, err
	}
	e.refreshReferenceCache(ctx, result)
	e.purgeExpiredCache()

	e.log.Info("Цикл синхронизации завершен",
		"dispatched", result.Dispatched,
		"failed", result.Failed,
		"refreshed", result.Refreshed,
	)

	return result, nil
}

// syncPendingQueue отправляет общую очередь отложенных операций.
func (e *SyncEngine) syncPendingQueue(ctx context.Context, result *sync.Result) error {
	ops, err := e.storage.PendingOperations()
	if err != nil {
		e.bookkeep(sync.DomainQueue, err)
		return &sync.CycleError{Phase: "queue", Err: err}
	}

	for _, op := range ops {
		if err := e.api.DispatchOperation(ctx, op); err != nil {
			e.recordFailure(result, sync.DomainQueue, op.ID, err)
			status := operation.StatusFailed
			if op.RetryCount+1 >= e.config.MaxRecordRetries {
				// Запись исчерпала попытки и уходит в dead-letter
				status = operation.StatusDead
				e.log.Warn("Операция переведена в dead-letter",
					"operation_id", op.ID,
					"retries", op.RetryCount+1,
				)
			}
			if uerr := e.storage.UpdateOperationStatus(op.ID, status, err.Error()); uerr != nil {
				e.log.Error("Ошибка обновления статуса операции", "operation_id", op.ID, "error", uerr)
			}
			continue
		}

		if uerr := e.storage.UpdateOperationStatus(op.ID, operation.StatusCompleted, ""); uerr != nil {
			e.log.Error("Ошибка удаления завершенной операции", "operation_id", op.ID, "error", uerr)
			continue
		}
		result.Dispatched++
	}

	e.bookkeep(sync.DomainQueue, nil)
	return nil
}

// syncWarehouseOperations отправляет складские офлайн-операции.
func (e *SyncEngine) syncWarehouseOperations(ctx context.Context, userID int, result *sync.Result) error {
	ops, err := e.storage.PendingWarehouseOperations(userID)
	if err != nil {
		e.bookkeep(sync.DomainWarehouse, err)
		return &sync.CycleError{Phase: "warehouse", Err: err}
	}

	for _, op := range ops {
		if err := e.api.CreateWarehouseOperation(ctx, op); err != nil {
			e.recordFailure(result, sync.DomainWarehouse, op.ID, err)
			if uerr := e.storage.UpdateDomainSyncStatus(sync.DomainWarehouse, op.ID, "failed", err.Error()); uerr != nil {
				e.log.Error("Ошибка обновления статуса складской операции", "operation_id", op.ID, "error", uerr)
			}
			continue
		}

		if uerr := e.storage.UpdateDomainSyncStatus(sync.DomainWarehouse, op.ID, "synced", ""); uerr != nil {
			e.log.Error("Ошибка удаления складской операции", "operation_id", op.ID, "error", uerr)
			continue
		}
		result.Dispatched++
	}

	e.bookkeep(sync.DomainWarehouse, nil)
	return nil
}

// syncTransportOperations отправляет транспортные офлайн-операции.
func (e *SyncEngine) syncTransportOperations(ctx context.Context, userID int, result *sync.Result) error {
	ops, err := e.storage.PendingTransportOperations(userID)
	if err != nil {
		e.bookkeep(sync.DomainTransport, err)
		return &sync.CycleError{Phase: "transport", Err: err}
	}

	for _, op := range ops {
		if err := e.api.CreateTransportOperation(ctx, op); err != nil {
			e.recordFailure(result, sync.DomainTransport, op.ID, err)
			if uerr := e.storage.UpdateDomainSyncStatus(sync.DomainTransport, op.ID, "failed", err.Error()); uerr != nil {
				e.log.Error("Ошибка обновления статуса транспортной операции", "operation_id", op.ID, "error", uerr)
			}
			continue
		}

		if uerr := e.storage.UpdateDomainSyncStatus(sync.DomainTransport, op.ID, "synced", ""); uerr != nil {
			e.log.Error("Ошибка удаления транспортной операции", "operation_id", op.ID, "error", uerr)
			continue
		}
		result.Dispatched++
	}

	e.bookkeep(sync.DomainTransport, nil)
	return nil
}

// refreshReferenceCache обновляет локальные справочники. Отказ по
// одному ключу логируется и пропускается.
func (e *SyncEngine) refreshReferenceCache(ctx context.Context, result *sync.Result) {
	var lastErr error
	for _, key := range cache.RefreshKeys {
		data, err := e.api.FetchReference(ctx, key)
		if err != nil {
			e.log.Warn("Не удалось обновить справочник", "key", key.String(), "error", err)
			lastErr = err
			continue
		}

		if err := e.storage.SetCache(key, data, "reference", e.config.CacheTTL); err != nil {
			e.log.Warn("Не удалось сохранить справочник в кеш", "key", key.String(), "error", err)
			lastErr = err
			continue
		}
		result.Refreshed++
	}

	e.bookkeep(sync.DomainCache, lastErr)
}

func (e *SyncEngine) purgeExpiredCache() {
	if err := e.storage.ClearExpiredCache(); err != nil {
		e.log.Warn("Ошибка очистки просроченного кеша", "error", err)
	}
}

func (e *SyncEngine) recordFailure(result *sync.Result, domain sync.Domain, id string, err error) {
	derr := &sync.DispatchError{RecordID: id, Domain: domain, Err: err}
	e.log.Warn("Ошибка отправки записи", "record_id", id, "domain", domain.String(), "error", err)

	result.Failed++
	result.Errors = append(result.Errors, sync.RecordError{
		RecordID:  id,
		Domain:    domain,
		Error:     derr.Error(),
		Timestamp: time.Now(),
	})
}

// bookkeep обновляет учетную запись области. Ошибки учета не влияют
// на результат цикла.
func (e *SyncEngine) bookkeep(domain sync.Domain, cause error) {
	status, errMsg := "ok", ""
	if cause != nil {
		status, errMsg = "error", cause.Error()
	}
	if err := e.storage.UpdateSyncBookkeeping(domain, status, errMsg); err != nil {
		e.log.Warn("Ошибка обновления учета синхронизации", "domain", domain.String(), "error", err)
	}
}

// Status возвращает снимок состояния движка. Только чтение; при
// недоступности хранилища поля деградируют к безопасным значениям.
func (e *SyncEngine) Status() *sync.Status {
	e.mu.Lock()
	status := &sync.Status{
		IsOnline:       e.isOnline,
		SyncInProgress: e.syncInProgress,
		LastSync:       e.lastSync,
	}
	e.mu.Unlock()

	if count, err := e.storage.CountPendingOperations(); err == nil {
		status.PendingOperations = count
	}
	if _, err := e.storage.LastUserSession(); err == nil {
		status.HasUserSession = true
	}

	return status
}

// IsSyncing проверяет, выполняется ли синхронизация
func (e *SyncEngine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncInProgress
}

// LastSyncTime возвращает время последнего успешного цикла
func (e *SyncEngine) LastSyncTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}
