package types

// ContextKey — тип ключей контекста команд.
type ContextKey string

// ClientAppKey — ключ, под которым инициализированное приложение
// передается в контексте команды.
const ClientAppKey ContextKey = "app"
