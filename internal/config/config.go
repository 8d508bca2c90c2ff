package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/logger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Redis        RedisConfig
	MySQL        MySQLConfig
	Logger       logger.Config
	Cache        CacheConfig
	Batch        BatchConfig
	Notification NotificationConfig
	Scoring      ScoringConfig
	RateLimit    RateLimitConfig
	Metrics      MetricsConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type RedisConfig struct {
	Host          string
	Port          string
	Password      string
	DB            int
	PoolSize      int
	ConsumerGroup string
}

type MySQLConfig struct {
	Host            string
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	SlowThreshold   time.Duration
}

type CacheConfig struct {
	CustomerTTL time.Duration
	ProductTTL  time.Duration
	PaymentTTL  time.Duration
}

// BatchConfig holds the thresholds, in days, and the run times of the daily
// jobs. Times are HH:MM in UTC.
type BatchConfig struct {
	Enabled                 bool
	CheckInterval           time.Duration
	LockTTL                 time.Duration
	OverdueDays             int
	PaymentReminderDays     int
	InstallmentReminderDays int
	DefaultDays             int
	WriteOffDays            int
	Schedules               map[string]string
	WriteOffDayOfMonth      int
}

type NotificationConfig struct {
	DefaultChannel string
	Enabled        map[domain.NotificationType]bool
	Templates      map[domain.NotificationType]string
}

type ScoringConfig struct {
	BaseURL          string
	ClientCreatePath string
	InitiatePath     string
	QueryPath        string
	ClientName       string
	ClientURL        string
	Username         string
	Password         string
	Timeout          time.Duration
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

var notificationTypes = []domain.NotificationType{
	domain.NotificationLoanCreation,
	domain.NotificationPaymentReminder,
	domain.NotificationInstallmentReminder,
	domain.NotificationPaymentReceived,
	domain.NotificationLoanOverdue,
	domain.NotificationLoanDefault,
	domain.NotificationLoanWrittenOff,
	domain.NotificationLoanClosed,
	domain.NotificationFeeApplied,
}

var defaultTemplates = map[domain.NotificationType]string{
	domain.NotificationLoanCreation:        "Dear {{firstName}}, your {{productName}} loan {{loanCode}} of {{loanAmount}} has been disbursed. Amount due: {{currentBalance}} by {{dueDate}}.",
	domain.NotificationPaymentReminder:     "Dear {{firstName}}, your loan {{loanCode}} balance of {{currentBalance}} is due on {{dueDate}}.",
	domain.NotificationInstallmentReminder: "Dear {{firstName}}, your installment of {{installmentAmount}} for loan {{loanCode}} is due on {{installmentDueDate}}.",
	domain.NotificationPaymentReceived:     "Dear {{firstName}}, we have received {{paymentAmount}} for loan {{loanCode}}. Outstanding balance: {{currentBalance}}.",
	domain.NotificationLoanOverdue:         "Dear {{firstName}}, your loan {{loanCode}} is overdue. Outstanding balance: {{currentBalance}}.",
	domain.NotificationLoanDefault:         "Dear {{firstName}}, your loan {{loanCode}} is in default. Outstanding balance: {{currentBalance}}.",
	domain.NotificationLoanWrittenOff:      "Dear {{firstName}}, your loan {{loanCode}} has been written off with {{currentBalance}} outstanding.",
	domain.NotificationLoanClosed:          "Dear {{firstName}}, your loan {{loanCode}} is fully repaid. Thank you.",
	domain.NotificationFeeApplied:          "Dear {{firstName}}, a late fee of {{lateFeeAmount}} was applied to loan {{loanCode}}. New balance: {{currentBalance}}.",
}

// Load reads the configuration from the environment (and .env), falling back
// to defaults. CONFIG_FILE may point at a YAML file, useful for templates.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
			Host: v.GetString("server.host"),
		},
		Redis: RedisConfig{
			Host:          v.GetString("redis.host"),
			Port:          v.GetString("redis.port"),
			Password:      v.GetString("redis.password"),
			DB:            v.GetInt("redis.db"),
			PoolSize:      v.GetInt("redis.pool_size"),
			ConsumerGroup: v.GetString("redis.consumer_group"),
		},
		MySQL: MySQLConfig{
			Host:            v.GetString("mysql.host"),
			User:            v.GetString("mysql.user"),
			Password:        v.GetString("mysql.password"),
			Database:        v.GetString("mysql.database"),
			MaxOpenConns:    v.GetInt("mysql.max_open_conns"),
			MaxIdleConns:    v.GetInt("mysql.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("mysql.conn_max_lifetime"),
			LogLevel:        v.GetString("mysql.log_level"),
			SlowThreshold:   v.GetDuration("mysql.slow_threshold"),
		},
		Logger: logger.Config{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			TimeFormat: v.GetString("log.time_format"),
		},
		Cache: CacheConfig{
			CustomerTTL: v.GetDuration("cache.customer_ttl"),
			ProductTTL:  v.GetDuration("cache.product_ttl"),
			PaymentTTL:  v.GetDuration("cache.payment_ttl"),
		},
		Batch: BatchConfig{
			Enabled:                 v.GetBool("batch.enabled"),
			CheckInterval:           v.GetDuration("batch.check_interval"),
			LockTTL:                 v.GetDuration("batch.lock_ttl"),
			OverdueDays:             v.GetInt("batch.overdue_days"),
			PaymentReminderDays:     v.GetInt("batch.payment_reminder_days"),
			InstallmentReminderDays: v.GetInt("batch.installment_reminder_days"),
			DefaultDays:             v.GetInt("batch.default_days"),
			WriteOffDays:            v.GetInt("batch.write_off_days"),
			WriteOffDayOfMonth:      v.GetInt("batch.write_off_day_of_month"),
			Schedules:               make(map[string]string, len(scheduleDefaults)),
		},
		Notification: NotificationConfig{
			DefaultChannel: strings.ToUpper(v.GetString("notification.default_channel")),
			Enabled:        make(map[domain.NotificationType]bool, len(notificationTypes)),
			Templates:      make(map[domain.NotificationType]string, len(notificationTypes)),
		},
		Scoring: ScoringConfig{
			BaseURL:          v.GetString("scoring.base_url"),
			ClientCreatePath: v.GetString("scoring.client_create_path"),
			InitiatePath:     v.GetString("scoring.initiate_path"),
			QueryPath:        v.GetString("scoring.query_path"),
			ClientName:       v.GetString("scoring.client_name"),
			ClientURL:        v.GetString("scoring.client_url"),
			Username:         v.GetString("scoring.username"),
			Password:         v.GetString("scoring.password"),
			Timeout:          v.GetDuration("scoring.timeout"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           v.GetBool("rate_limit.enabled"),
			RequestsPerSecond: v.GetFloat64("rate_limit.requests_per_second"),
			Burst:             v.GetInt("rate_limit.burst"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
	}

	for job := range scheduleDefaults {
		cfg.Batch.Schedules[job] = v.GetString("batch.schedule." + job)
	}

	for _, t := range notificationTypes {
		key := strings.ToLower(string(t))
		cfg.Notification.Enabled[t] = v.GetBool("notification.enabled." + key)
		cfg.Notification.Templates[t] = v.GetString("notification.template." + key)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// scheduleDefaults are keyed by the job names the scheduler runs.
var scheduleDefaults = map[string]string{
	service.JobMarkOverdue:              "00:00",
	service.JobApplyLateFees:            "00:30",
	service.JobSendPaymentReminders:     "01:00",
	service.JobSendInstallmentReminders: "01:30",
	service.JobMarkDefaulted:            "02:00",
	service.JobMarkWrittenOff:           "00:30",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8072")
	v.SetDefault("server.host", "0.0.0.0")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("redis.consumer_group", "loan-notifiers")

	v.SetDefault("mysql.host", "localhost:3306")
	v.SetDefault("mysql.user", "gigmile")
	v.SetDefault("mysql.password", "gigmile123")
	v.SetDefault("mysql.database", "gigmile")
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", time.Hour)
	v.SetDefault("mysql.log_level", "warn")
	v.SetDefault("mysql.slow_threshold", 200*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.time_format", time.RFC3339)

	v.SetDefault("cache.customer_ttl", 10*time.Minute)
	v.SetDefault("cache.product_ttl", 10*time.Minute)
	v.SetDefault("cache.payment_ttl", 24*time.Hour)

	v.SetDefault("batch.enabled", true)
	v.SetDefault("batch.check_interval", time.Minute)
	v.SetDefault("batch.lock_ttl", 30*time.Minute)
	v.SetDefault("batch.overdue_days", 1)
	v.SetDefault("batch.payment_reminder_days", 3)
	v.SetDefault("batch.installment_reminder_days", 3)
	v.SetDefault("batch.default_days", 30)
	v.SetDefault("batch.write_off_days", 90)
	v.SetDefault("batch.write_off_day_of_month", 2)
	for job, at := range scheduleDefaults {
		v.SetDefault("batch.schedule."+job, at)
	}

	v.SetDefault("notification.default_channel", string(domain.ChannelSMS))
	for _, t := range notificationTypes {
		key := strings.ToLower(string(t))
		v.SetDefault("notification.enabled."+key, true)
		v.SetDefault("notification.template."+key, defaultTemplates[t])
	}

	v.SetDefault("scoring.base_url", "http://localhost:5000")
	v.SetDefault("scoring.client_create_path", "/api/v1/client/createClient")
	v.SetDefault("scoring.initiate_path", "/api/v1/scoring/initiateQueryScore")
	v.SetDefault("scoring.query_path", "/api/v1/scoring/queryScore")
	v.SetDefault("scoring.client_name", "lending-service")
	v.SetDefault("scoring.client_url", "")
	v.SetDefault("scoring.username", "")
	v.SetDefault("scoring.password", "")
	v.SetDefault("scoring.timeout", 10*time.Second)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 50.0)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) validate() error {
	for job, at := range c.Batch.Schedules {
		if _, _, err := ParseClock(at); err != nil {
			return fmt.Errorf("invalid schedule for %s: %w", job, err)
		}
	}
	if c.Batch.WriteOffDayOfMonth < 1 || c.Batch.WriteOffDayOfMonth > 28 {
		return fmt.Errorf("batch.write_off_day_of_month must be between 1 and 28, got %d", c.Batch.WriteOffDayOfMonth)
	}
	if !domain.NotificationChannel(c.Notification.DefaultChannel).Valid() {
		return fmt.Errorf("invalid notification.default_channel %q", c.Notification.DefaultChannel)
	}
	if c.Batch.LockTTL <= 0 {
		return fmt.Errorf("batch.lock_ttl must be positive")
	}
	return nil
}

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Thresholds returns the day threshold passed to each batch job.
func (b BatchConfig) Thresholds() map[string]int {
	return map[string]int{
		service.JobMarkOverdue:              b.OverdueDays,
		service.JobApplyLateFees:            0,
		service.JobSendPaymentReminders:     b.PaymentReminderDays,
		service.JobSendInstallmentReminders: b.InstallmentReminderDays,
		service.JobMarkDefaulted:            b.DefaultDays,
		service.JobMarkWrittenOff:           b.WriteOffDays,
	}
}

func (n NotificationConfig) Settings() service.NotificationSettings {
	return service.NotificationSettings{
		DefaultChannel: domain.NotificationChannel(n.DefaultChannel),
		Enabled:        n.Enabled,
		Templates:      n.Templates,
	}
}
