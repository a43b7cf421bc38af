package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultServerAddress = "localhost:8080"
	defaultLogLevel      = "info"
	defaultEnv           = "local"
	defaultConfigDir     = ".logisync"
)

type Config struct {
	Env              string `mapstructure:"app_env"`
	ServerAddress    string `mapstructure:"server_address"`
	LogLevel         string `mapstructure:"log_level"`
	ConfigDir        string `mapstructure:"config_dir"`
	DataPath         string `mapstructure:"data_path"`
	SyncInterval     int    `mapstructure:"sync_interval_minutes"`
	ProbeInterval    int    `mapstructure:"probe_interval_seconds"`
	MaxCycleRetries  int    `mapstructure:"max_cycle_retries"`
	MaxRecordRetries int    `mapstructure:"max_record_retries"`
	CacheTTLMinutes  int    `mapstructure:"cache_ttl_minutes"`
	EnableTLS        bool   `mapstructure:"enable_tls"`
	CACertPath       string `mapstructure:"ca_cert_path"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Пробуем найти .env в родительской директории
		envPath = "../.env"
	}

	// Загружаем .env файл если существует
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	// Устанавливаем значения по умолчанию
	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("SYNC_INTERVAL_MINUTES", 5)
	viper.SetDefault("PROBE_INTERVAL_SECONDS", 15)
	viper.SetDefault("MAX_CYCLE_RETRIES", 3)
	viper.SetDefault("MAX_RECORD_RETRIES", 5)
	viper.SetDefault("CACHE_TTL_MINUTES", 120)
	viper.SetDefault("ENABLE_TLS", false)

	// Получаем домашнюю директорию пользователя
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	// Вычисляем пути для хранения данных
	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	// Создаем директории если их нет
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fmt.Printf("Ошибка создания директории конфигурации: %v\n", err)
	}

	dataPath := viper.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "offline.db")
	}

	config := &Config{
		Env:              viper.GetString("APP_ENV"),
		ServerAddress:    viper.GetString("SERVER_ADDRESS"),
		LogLevel:         viper.GetString("LOG_LEVEL"),
		ConfigDir:        configDir,
		DataPath:         dataPath,
		SyncInterval:     viper.GetInt("SYNC_INTERVAL_MINUTES"),
		ProbeInterval:    viper.GetInt("PROBE_INTERVAL_SECONDS"),
		MaxCycleRetries:  viper.GetInt("MAX_CYCLE_RETRIES"),
		MaxRecordRetries: viper.GetInt("MAX_RECORD_RETRIES"),
		CacheTTLMinutes:  viper.GetInt("CACHE_TTL_MINUTES"),
		EnableTLS:        viper.GetBool("ENABLE_TLS"),
		CACertPath:       viper.GetString("CA_CERT_PATH"),
	}

	// Валидация конфигурации
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}

	return config
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_minutes должен быть положительным")
	}
	if c.MaxCycleRetries <= 0 {
		return fmt.Errorf("max_cycle_retries должен быть положительным")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
