package client

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	gosync "sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"logisync/internal/app/client/config"
	"logisync/internal/domain/cache"
	"logisync/internal/domain/operation"
	"logisync/internal/domain/session"
	"logisync/internal/domain/sync"
	"logisync/internal/domain/transport"
	"logisync/internal/domain/warehouse"
)

// App — офлайн-фасад клиента. Единственная точка входа UI: локальные
// записи, снимок состояния, вход и выход, принудительная
// синхронизация. Запись всегда идет в локальное хранилище и никогда
// не ждет сети.
type App struct {
	config  *config.Config
	log     *slog.Logger
	api     RemoteAPI
	storage Storage
	monitor *Monitor
	engine  *SyncEngine

	mu       gosync.RWMutex
	snapshot *OfflineSnapshot
	userID   int

	wg      gosync.WaitGroup
	cancel  context.CancelFunc
	started bool
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	httpCl, err := NewHTTPClient(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации HTTP клиента: %w", err)
	}

	// Инициализируем локальное хранилище (используем SQLite)
	var storage Storage
	sqliteStorage, err := NewSQLiteStorage(cfg.DataPath)
	if err != nil {
		log.Warn("Не удалось инициализировать SQLite, используем память", "error", err)
		storage = NewMemoryStorage()
	} else {
		storage = sqliteStorage
	}

	monitor := NewMonitor(httpCl, log, time.Duration(cfg.ProbeInterval)*time.Second)

	syncCfg := SyncConfig{
		Interval:         time.Duration(cfg.SyncInterval) * time.Minute,
		MaxCycleRetries:  cfg.MaxCycleRetries,
		MaxRecordRetries: cfg.MaxRecordRetries,
		BackoffBase:      time.Second,
		CacheTTL:         time.Duration(cfg.CacheTTLMinutes) * time.Minute,
	}
	engine := NewSyncEngine(storage, httpCl, monitor, log, syncCfg)

	app := &App{
		config:   cfg,
		log:      log,
		api:      httpCl,
		storage:  storage,
		monitor:  monitor,
		engine:   engine,
		snapshot: &OfflineSnapshot{},
	}
	engine.onCycleDone = app.refreshSnapshot

	// Восстанавливаем сессию предыдущего запуска
	if sess, err := storage.LastUserSession(); err == nil {
		httpCl.SetToken(sess.Token)
		app.userID = sess.UserID
		log.Debug("Сессия восстановлена", "user_id", sess.UserID)
	}

	app.refreshSnapshot()

	return app, nil
}

// Start запускает монитор сети и движок синхронизации. Первая
// проверка соединения выполняется синхронно, поэтому сразу после
// возврата состояние онлайн/офлайн уже известно.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	ctx, a.cancel = context.WithCancel(ctx)

	a.monitor.Start(ctx)
	a.engine.Initialize(ctx)
	a.refreshSnapshot()
}

// Run запускает клиент в фоновом режиме до сигнала завершения.
func (a *App) Run() error {
	a.Start(context.Background())

	a.wg.Add(1)
	go a.handleSignals()

	a.log.Info("Клиент запущен",
		"server", a.config.ServerAddress,
		"env", a.config.Env,
	)

	a.wg.Wait()
	return nil
}

func (a *App) handleSignals() {
	defer a.wg.Done()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigChan
	a.log.Info("Получен сигнал завершения", "signal", sig.String())

	if a.cancel != nil {
		a.cancel()
	}
}

// Shutdown останавливает фоновые процессы и закрывает хранилище.
// Идущий цикл синхронизации не прерывается.
func (a *App) Shutdown() {
	a.log.Info("Завершение работы клиента...")

	if a.cancel != nil {
		a.cancel()
	}
	a.engine.Destroy()
	a.monitor.Stop()
	a.wg.Wait()

	if err := a.storage.Close(); err != nil {
		a.log.Warn("Ошибка закрытия хранилища", "error", err)
	}

	a.log.Info("Клиент завершил работу")
}

// ==================== Auth ====================

// Login выполняет вход и сохраняет сессию локально. Без сети вход
// невозможен: учетные данные проверяет сервер.
func (a *App) Login(ctx context.Context, req LoginRequest) (*session.UserSession, error) {
	sess, err := a.api.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	if err := a.storage.SaveUserSession(sess); err != nil {
		return nil, fmt.Errorf("ошибка сохранения сессии: %w", err)
	}

	a.mu.Lock()
	a.userID = sess.UserID
	a.mu.Unlock()

	a.refreshSnapshot()
	a.log.Info("Вход выполнен успешно", "email", req.Email)
	return sess, nil
}

// Logout удаляет сессию и все связанные офлайн-данные.
func (a *App) Logout() error {
	if err := a.storage.ClearUserSession(); err != nil {
		return fmt.Errorf("ошибка удаления сессии: %w", err)
	}

	a.api.SetToken("")
	a.mu.Lock()
	a.userID = 0
	a.mu.Unlock()

	a.refreshSnapshot()
	a.log.Info("Выход выполнен, офлайн-данные очищены")
	return nil
}

// IsAuthenticated проверяет наличие активной сессии
func (a *App) IsAuthenticated() bool {
	_, err := a.storage.LastUserSession()
	return err == nil
}

// CurrentSession возвращает активную сессию.
func (a *App) CurrentSession() (*session.UserSession, error) {
	return a.storage.LastUserSession()
}

// ==================== Offline Operations ====================

// SaveOfflineOperation ставит произвольную операцию в общую очередь.
// Запись только локальная; отправку выполнит ближайший цикл
// синхронизации.
func (a *App) SaveOfflineOperation(kind operation.Kind, resource string, payload any) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", err
	}
	if resource == "" {
		return "", fmt.Errorf("не указан ресурс операции")
	}

	raw, err := operation.EncodePayload(payload)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации операции: %w", err)
	}

	op := &operation.PendingOperation{
		ID:        uuid.NewString(),
		Kind:      kind,
		Resource:  resource,
		Payload:   raw,
		UserID:    a.currentUserID(),
		Status:    operation.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := a.storage.AddPendingOperation(op); err != nil {
		return "", fmt.Errorf("ошибка сохранения операции: %w", err)
	}

	a.refreshSnapshot()
	a.log.Debug("Операция сохранена локально", "operation_id", op.ID, "resource", resource)
	return op.ID, nil
}

// SaveOfflineReceipt сохраняет приёмку товара локально.
func (a *App) SaveOfflineReceipt(data warehouse.ReceiptData) (string, error) {
	return a.saveWarehouse(warehouse.TypeReceipt, data)
}

// SaveOfflineShipment сохраняет отгрузку локально.
func (a *App) SaveOfflineShipment(data warehouse.ShipmentData) (string, error) {
	return a.saveWarehouse(warehouse.TypeShipment, data)
}

// SaveOfflineInventory сохраняет инвентаризацию локально.
func (a *App) SaveOfflineInventory(data warehouse.InventoryData) (string, error) {
	return a.saveWarehouse(warehouse.TypeInventory, data)
}

func (a *App) saveWarehouse(typ warehouse.OperationType, data any) (string, error) {
	raw, err := operation.EncodePayload(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации складской операции: %w", err)
	}

	op := &warehouse.Operation{
		ID:         uuid.NewString(),
		Type:       typ,
		Payload:    raw,
		UserID:     a.currentUserID(),
		SyncStatus: "pending",
		CreatedAt:  time.Now(),
	}

	if err := a.storage.SaveWarehouseOperation(op); err != nil {
		return "", fmt.Errorf("ошибка сохранения складской операции: %w", err)
	}

	a.refreshSnapshot()
	a.log.Debug("Складская операция сохранена локально", "operation_id", op.ID, "type", typ.String())
	return op.ID, nil
}

// SaveOfflineDelivery сохраняет доставку локально.
func (a *App) SaveOfflineDelivery(data transport.DeliveryData) (string, error) {
	return a.saveTransport(transport.TypeDelivery, data)
}

func (a *App) saveTransport(typ transport.OperationType, data any) (string, error) {
	raw, err := operation.EncodePayload(data)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации транспортной операции: %w", err)
	}

	op := &transport.Operation{
		ID:         uuid.NewString(),
		Type:       typ,
		Payload:    raw,
		UserID:     a.currentUserID(),
		SyncStatus: "pending",
		CreatedAt:  time.Now(),
	}

	if err := a.storage.SaveTransportOperation(op); err != nil {
		return "", fmt.Errorf("ошибка сохранения транспортной операции: %w", err)
	}

	a.refreshSnapshot()
	a.log.Debug("Транспортная операция сохранена локально", "operation_id", op.ID, "type", typ.String())
	return op.ID, nil
}

// ==================== Sync & State ====================

// ForceSync запускает цикл синхронизации немедленно. Офлайн —
// немедленная ошибка без постановки в очередь.
func (a *App) ForceSync(ctx context.Context) (*sync.Result, error) {
	return a.engine.ManualSync(ctx)
}

// SyncStatus возвращает статус движка синхронизации.
func (a *App) SyncStatus() *sync.Status {
	return a.engine.Status()
}

// SyncBookkeeping возвращает учетные записи по областям.
func (a *App) SyncBookkeeping() ([]*sync.StatusRecord, error) {
	return a.storage.SyncBookkeeping()
}

// IsOnline возвращает последнее известное состояние соединения
func (a *App) IsOnline() bool {
	return a.monitor.Online()
}

// CheckConnection проверяет соединение с сервером
func (a *App) CheckConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return a.api.HealthCheck(ctx)
}

// Snapshot возвращает текущий офлайн-снимок.
func (a *App) Snapshot() *OfflineSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// refreshSnapshot перечитывает офлайн-состояние из хранилища и
// публикует новый снимок. Ошибки чтения деградируют к пустым спискам.
func (a *App) refreshSnapshot() {
	snap := &OfflineSnapshot{
		IsOnline:       a.monitor.Online(),
		SyncInProgress: a.engine.IsSyncing(),
		LastSync:       a.engine.LastSyncTime(),
	}

	if count, err := a.storage.CountPendingOperations(); err == nil {
		snap.PendingCount = count
	}

	userID := a.currentUserID()
	if whOps, err := a.storage.PendingWarehouseOperations(userID); err == nil {
		for _, op := range whOps {
			switch op.Type {
			case warehouse.TypeReceipt:
				snap.Receipts = append(snap.Receipts, op)
			case warehouse.TypeShipment:
				snap.Shipments = append(snap.Shipments, op)
			case warehouse.TypeInventory:
				snap.Inventory = append(snap.Inventory, op)
			}
		}
	}
	if tmsOps, err := a.storage.PendingTransportOperations(userID); err == nil {
		for _, op := range tmsOps {
			if op.Type == transport.TypeDelivery {
				snap.Deliveries = append(snap.Deliveries, op)
			}
		}
	}

	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()
}

func (a *App) currentUserID() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID
}

// ==================== Cache ====================

// Reference возвращает справочник из локального кеша. Просроченная
// или отсутствующая запись — nil без ошибки.
func (a *App) Reference(key cache.Key) (*cache.Entry, error) {
	return a.storage.GetCache(key)
}

// ClearOfflineData удаляет сессию и все офлайн-данные устройства.
func (a *App) ClearOfflineData() error {
	if err := a.storage.ClearUserSession(); err != nil {
		return fmt.Errorf("ошибка очистки офлайн-данных: %w", err)
	}
	a.api.SetToken("")
	a.mu.Lock()
	a.userID = 0
	a.mu.Unlock()
	a.refreshSnapshot()
	return nil
}
