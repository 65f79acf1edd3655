package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig      `toml:"server"`
	Database       DatabaseConfig    `toml:"database"`
	Redis          RedisConfig       `toml:"redis"`
	Logs           LogsConfig        `toml:"logs"`
	Metrics        MetricsConfig     `toml:"metrics"`
	PricingService IntegrationConfig `toml:"pricing_service"`
	NotifyService  IntegrationConfig `toml:"notify_service"`
	Dialog         DialogConfig      `toml:"dialog"`
	Booking        BookingConfig     `toml:"booking"`
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

// DatabaseConfig настройки подключения к Postgres
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN возвращает строку подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig настройки Redis (бэкенд хранилища диалоговых сессий)
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// MetricsConfig настройки prometheus метрик
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// IntegrationConfig настройки HTTP клиента внешнего сервиса
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// DialogConfig настройки диалогового движка
type DialogConfig struct {
	// SessionBackend бэкенд хранилища сессий: "memory" или "redis"
	SessionBackend string `toml:"session_backend"`
	// SessionTTLMinutes время жизни неактивной сессии
	SessionTTLMinutes int `toml:"session_ttl_minutes"`
}

// BookingConfig бизнес-настройки бронирования
type BookingConfig struct {
	// SubscriptionResourceClasses классы ресурсов, для которых разрешена
	// оплата абонементом. Применимость абонемента к классу - настройка,
	// а не жёстко зашитое правило
	SubscriptionResourceClasses []string `toml:"subscription_resource_classes"`
	// ScheduleHorizonDays горизонт публикации расписания тренажёра,
	// используется если в БД не задана максимальная дата расписания
	ScheduleHorizonDays int `toml:"schedule_horizon_days"`
}

// SubscriptionAllowedFor возвращает true, если класс ресурса
// допускает оплату абонементом
func (b BookingConfig) SubscriptionAllowedFor(class domain.ResourceClass) bool {
	for _, c := range b.SubscriptionResourceClasses {
		if c == string(class) {
			return true
		}
	}
	return false
}

// Load читает и валидирует конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.ServiceName == "" {
		cfg.Metrics.ServiceName = "skischool-booking-service"
	}
	if cfg.Dialog.SessionBackend == "" {
		cfg.Dialog.SessionBackend = "memory"
	}
	if cfg.Dialog.SessionTTLMinutes == 0 {
		cfg.Dialog.SessionTTLMinutes = 30
	}
	if cfg.Booking.ScheduleHorizonDays == 0 {
		cfg.Booking.ScheduleHorizonDays = domain.DefaultScheduleHorizonDays
	}
	if cfg.Booking.SubscriptionResourceClasses == nil {
		// По умолчанию абонемент применим к индивидуальным тренировкам,
		// для групповых - только кошелёк
		cfg.Booking.SubscriptionResourceClasses = []string{
			string(domain.ClassSimulator),
			string(domain.ClassInstructor),
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if cfg.Database.DBName == "" {
		return fmt.Errorf("config: database.dbname is required")
	}
	if cfg.Dialog.SessionBackend != "memory" && cfg.Dialog.SessionBackend != "redis" {
		return fmt.Errorf("config: dialog.session_backend must be \"memory\" or \"redis\", got %q", cfg.Dialog.SessionBackend)
	}
	if cfg.Dialog.SessionBackend == "redis" && cfg.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when dialog.session_backend is \"redis\"")
	}
	return nil
}
