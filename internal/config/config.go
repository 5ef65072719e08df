// Package config resolves the daemon's configuration table from flags,
// environment variables, and defaults, with command-line taking
// precedence over environment, then defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Bus identifies one of the supported external message buses.
type Bus string

const (
	BusRabbitMQ    Bus = "rabbitmq"
	BusKafka       Bus = "kafka"
	BusSQS         Bus = "sqs"
	BusAzureQueue  Bus = "azure-queue"
)

// Role identifies which of the three logical queues (redo, info,
// failure) an Endpoint configures.
type Role string

const (
	RoleRedo    Role = "redo"
	RoleInfo    Role = "info"
	RoleFailure Role = "failure"
)

// Endpoint holds the connection details for one (bus, role) pair.
type Endpoint struct {
	Host     string
	Queue    string
	Topic    string
	Username string
	Password string
}

// Config is the fully resolved configuration table.
type Config struct {
	ThreadsPerProcess    int           `mapstructure:"threads_per_process" validate:"min=1"`
	QueueMaxSize         int           `mapstructure:"queue_maxsize" validate:"min=1"`
	RedoSleepTime        time.Duration `validate:"min=0"`
	RedoRetrySleepTime   time.Duration `validate:"min=0"`
	RedoRetryLimit       int           `mapstructure:"redo_retry_limit" validate:"min=0"`
	MonitoringPeriod     time.Duration `validate:"min=0"`
	LogLicensePeriod     time.Duration `validate:"min=0"`
	ExpirationWarningDays int          `mapstructure:"expiration_warning_in_days" validate:"min=0"`
	StartupDelay         time.Duration `validate:"min=0"`
	ExitOnThreadTermination bool       `mapstructure:"exit_on_thread_termination"`
	RunGDB               bool          `mapstructure:"run_gdb"`

	RabbitMQPrefetchCount       int           `mapstructure:"rabbitmq_prefetch_count" validate:"min=1"`
	RabbitMQDeliveryMode        int           `mapstructure:"rabbitmq_delivery_mode" validate:"oneof=1 2"`
	RabbitMQHeartbeat           time.Duration `validate:"min=0"`
	RabbitMQReconnectDelay      time.Duration `validate:"min=0"`
	RabbitMQUseExistingEntities bool          `mapstructure:"rabbitmq_use_existing_entities"`

	// EngineConfigurationJSON and DatabaseURL are redacted from banner
	// logging — see Config.LogValue in redact.go.
	EngineConfigurationJSON string
	DatabaseURL             string

	// MetricsAddr, when non-empty, starts a /metrics scrape listener
	// (A6); this is observability plumbing, not a management surface.
	MetricsAddr string

	// VerboseGovernorLog enables a per-record governor trace line,
	// off by default.
	VerboseGovernorLog bool

	Logging Logging

	Endpoints map[Bus]map[Role]Endpoint
}

// Logging configures the structured logger (A2): level and format are
// always honored; Output/Filename/rotation only matter when Output is
// "file".
type Logging struct {
	Level      string `validate:"oneof=debug info warn error"`
	Format     string `validate:"oneof=json text"`
	Output     string `validate:"oneof=stdout stderr file"`
	Filename   string
	MaxSizeMB  int `validate:"min=0"`
	MaxBackups int `validate:"min=0"`
	MaxAgeDays int `validate:"min=0"`
	Compress   bool
}

var validate = validator.New()

// Defaults registers every default onto v, so that env/flag binding
// later only needs to override what the operator actually set.
func Defaults(v *viper.Viper) {
	v.SetDefault("threads_per_process", 4)
	v.SetDefault("queue_maxsize", 10)
	v.SetDefault("redo_sleep_time_in_seconds", 10)
	v.SetDefault("redo_retry_sleep_time_in_seconds", 60)
	v.SetDefault("redo_retry_limit", 5)
	v.SetDefault("monitoring_period_in_seconds", 600)
	v.SetDefault("log_license_period_in_seconds", 86400)
	v.SetDefault("expiration_warning_in_days", 30)
	v.SetDefault("delay_in_seconds", 0)
	v.SetDefault("exit_on_thread_termination", false)
	v.SetDefault("run_gdb", false)
	v.SetDefault("rabbitmq_prefetch_count", 50)
	v.SetDefault("rabbitmq_delivery_mode", 1)
	v.SetDefault("rabbitmq_heartbeat_in_seconds", 60)
	v.SetDefault("rabbitmq_reconnect_delay_in_seconds", 60)
	v.SetDefault("rabbitmq_use_existing_entities", true)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("verbose_governor_log", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_output", "stdout")
	v.SetDefault("log_filename", "")
	v.SetDefault("log_max_size_mb", 100)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 28)
	v.SetDefault("log_compress", true)
}

// Load builds a Config from v, which the caller has already wired to
// flags (highest precedence) and the REDOER_ environment prefix
// (second precedence); Defaults establishes the third.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ThreadsPerProcess:           v.GetInt("threads_per_process"),
		QueueMaxSize:                v.GetInt("queue_maxsize"),
		RedoSleepTime:               time.Duration(v.GetInt("redo_sleep_time_in_seconds")) * time.Second,
		RedoRetrySleepTime:          time.Duration(v.GetInt("redo_retry_sleep_time_in_seconds")) * time.Second,
		RedoRetryLimit:              v.GetInt("redo_retry_limit"),
		MonitoringPeriod:            time.Duration(v.GetInt("monitoring_period_in_seconds")) * time.Second,
		LogLicensePeriod:            time.Duration(v.GetInt("log_license_period_in_seconds")) * time.Second,
		ExpirationWarningDays:       v.GetInt("expiration_warning_in_days"),
		StartupDelay:                time.Duration(v.GetInt("delay_in_seconds")) * time.Second,
		ExitOnThreadTermination:     v.GetBool("exit_on_thread_termination"),
		RunGDB:                      v.GetBool("run_gdb"),
		RabbitMQPrefetchCount:       v.GetInt("rabbitmq_prefetch_count"),
		RabbitMQDeliveryMode:        v.GetInt("rabbitmq_delivery_mode"),
		RabbitMQHeartbeat:           time.Duration(v.GetInt("rabbitmq_heartbeat_in_seconds")) * time.Second,
		RabbitMQReconnectDelay:      time.Duration(v.GetInt("rabbitmq_reconnect_delay_in_seconds")) * time.Second,
		RabbitMQUseExistingEntities: v.GetBool("rabbitmq_use_existing_entities"),
		EngineConfigurationJSON:     v.GetString("engine_configuration_json"),
		DatabaseURL:                 v.GetString("database_url"),
		MetricsAddr:                 v.GetString("metrics_addr"),
		VerboseGovernorLog:          v.GetBool("verbose_governor_log"),
		Logging: Logging{
			Level:      v.GetString("log_level"),
			Format:     v.GetString("log_format"),
			Output:     v.GetString("log_output"),
			Filename:   v.GetString("log_filename"),
			MaxSizeMB:  v.GetInt("log_max_size_mb"),
			MaxBackups: v.GetInt("log_max_backups"),
			MaxAgeDays: v.GetInt("log_max_age_days"),
			Compress:   v.GetBool("log_compress"),
		},
		Endpoints: loadEndpoints(v),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// loadEndpoints reads the <bus>_{role}_{field} keys, falling back to
// the unqualified <bus>_{field} key when the role-specific one is
// unset.
func loadEndpoints(v *viper.Viper) map[Bus]map[Role]Endpoint {
	buses := []Bus{BusRabbitMQ, BusKafka, BusSQS, BusAzureQueue}
	roles := []Role{RoleRedo, RoleInfo, RoleFailure}

	out := make(map[Bus]map[Role]Endpoint, len(buses))
	for _, bus := range buses {
		busPrefix := busKeyPrefix(bus)
		perRole := make(map[Role]Endpoint, len(roles))
		for _, role := range roles {
			perRole[role] = Endpoint{
				Host:     lookupWithFallback(v, busPrefix, string(role), "host"),
				Queue:    lookupWithFallback(v, busPrefix, string(role), "queue"),
				Topic:    lookupWithFallback(v, busPrefix, string(role), "topic"),
				Username: lookupWithFallback(v, busPrefix, string(role), "username"),
				Password: lookupWithFallback(v, busPrefix, string(role), "password"),
			}
		}
		out[bus] = perRole
	}
	return out
}

func busKeyPrefix(b Bus) string {
	return strings.ReplaceAll(string(b), "-", "_")
}

func lookupWithFallback(v *viper.Viper, busPrefix, role, field string) string {
	qualified := fmt.Sprintf("%s_%s_%s", busPrefix, role, field)
	if val := v.GetString(qualified); val != "" {
		return val
	}
	unqualified := fmt.Sprintf("%s_%s", busPrefix, field)
	return v.GetString(unqualified)
}

// Endpoint returns the resolved endpoint for a (bus, role) pair.
func (c *Config) Endpoint(bus Bus, role Role) Endpoint {
	if perRole, ok := c.Endpoints[bus]; ok {
		return perRole[role]
	}
	return Endpoint{}
}
