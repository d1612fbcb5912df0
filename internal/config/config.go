package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
)

// Store and queue backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
	BackendSQS      = "sqs"
	BackendRedis    = "redis"
)

// Notification channels.
const (
	ChannelLog      = "log"
	ChannelSendGrid = "sendgrid"
	ChannelSNS      = "sns"
)

type Config struct {
	Env        string `mapstructure:"ENV"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	StoreBackend      string `mapstructure:"STORE_BACKEND"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	AppointmentsTable string `mapstructure:"APPOINTMENTS_TABLE"`
	PatientsTable     string `mapstructure:"PATIENTS_TABLE"`
	AuditTable        string `mapstructure:"AUDIT_TABLE"`

	QueueBackend         string `mapstructure:"QUEUE_BACKEND"`
	RequestQueueURL      string `mapstructure:"REQUEST_QUEUE_URL"`
	ConfirmationQueueURL string `mapstructure:"CONFIRMATION_QUEUE_URL"`
	ReminderQueueURL     string `mapstructure:"REMINDER_QUEUE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSEndpointURL     string `mapstructure:"AWS_ENDPOINT_URL"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`

	ClinicTimezone     string        `mapstructure:"CLINIC_TIMEZONE"`
	BusinessHoursStart string        `mapstructure:"BUSINESS_HOURS_START"`
	BusinessHoursEnd   string        `mapstructure:"BUSINESS_HOURS_END"`
	ReminderLeadTime   time.Duration `mapstructure:"REMINDER_LEAD_TIME"`
	RetentionDays      int           `mapstructure:"RETENTION_DAYS"`

	WorkerBatchSize    int           `mapstructure:"WORKER_BATCH_SIZE"`
	WorkerPollInterval time.Duration `mapstructure:"WORKER_POLL_INTERVAL"`
	ReminderClaimTTL   time.Duration `mapstructure:"REMINDER_CLAIM_TTL"`

	NotifyChannels  string `mapstructure:"NOTIFY_CHANNELS"`
	SendGridAPIKey  string `mapstructure:"SENDGRID_API_KEY"`
	NotifyFromEmail string `mapstructure:"NOTIFY_FROM_EMAIL"`
	NotifyFromName  string `mapstructure:"NOTIFY_FROM_NAME"`
	NotifySMSSender string `mapstructure:"NOTIFY_SMS_SENDER_ID"`
}

var defaults = map[string]any{
	"ENV":                    "production",
	"SERVER_PORT":            "8080",
	"STORE_BACKEND":          BackendMemory,
	"APPOINTMENTS_TABLE":     "Appointments",
	"PATIENTS_TABLE":         "Patients",
	"AUDIT_TABLE":            "audit_logs",
	"QUEUE_BACKEND":          BackendMemory,
	"REQUEST_QUEUE_URL":      "appointment-requests",
	"CONFIRMATION_QUEUE_URL": "appointment-confirmations",
	"REMINDER_QUEUE_URL":     "appointment-reminders",
	"AWS_REGION":             "us-east-1",
	"CLINIC_TIMEZONE":        timeutil.DefaultTimezone,
	"BUSINESS_HOURS_START":   "08:00",
	"BUSINESS_HOURS_END":     "18:00",
	"REMINDER_LEAD_TIME":     "24h",
	"RETENTION_DAYS":         30,
	"WORKER_BATCH_SIZE":      10,
	"WORKER_POLL_INTERVAL":   "5s",
	"REMINDER_CLAIM_TTL":     "10m",
	"NOTIFY_CHANNELS":        ChannelLog,
	"NOTIFY_FROM_NAME":       "Clinic Scheduler",
}

var keys = []string{
	"DATABASE_URL", "REDIS_URL",
	"AWS_ENDPOINT_URL", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"SENDGRID_API_KEY", "NOTIFY_FROM_EMAIL", "NOTIFY_SMS_SENDER_ID",
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	for k, def := range defaults {
		v.SetDefault(k, def)
		_ = v.BindEnv(k)
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.ServerPort)
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) Location() *time.Location {
	return timeutil.Location(c.ClinicTimezone)
}

func (c *Config) BusinessHours() (domain.BusinessHours, error) {
	open, err := timeutil.ParseTimeOfDay(c.BusinessHoursStart)
	if err != nil {
		return domain.BusinessHours{}, fmt.Errorf("BUSINESS_HOURS_START: %w", err)
	}
	closing, err := timeutil.ParseTimeOfDay(c.BusinessHoursEnd)
	if err != nil {
		return domain.BusinessHours{}, fmt.Errorf("BUSINESS_HOURS_END: %w", err)
	}
	return domain.BusinessHours{Open: open, Close: closing}, nil
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// Channels returns the configured notification channels, lowercased.
func (c *Config) Channels() []string {
	var out []string
	for _, ch := range strings.Split(c.NotifyChannels, ",") {
		if ch = strings.ToLower(strings.TrimSpace(ch)); ch != "" {
			out = append(out, ch)
		}
	}
	return out
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendMemory, BackendDynamoDB:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORE_BACKEND is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be memory, postgres or dynamodb, got %q", c.StoreBackend))
	}

	if c.StoreBackend == BackendDynamoDB && (c.AppointmentsTable == "" || c.PatientsTable == "") {
		errs = append(errs, errors.New("APPOINTMENTS_TABLE and PATIENTS_TABLE are required when STORE_BACKEND is dynamodb"))
	}

	switch c.QueueBackend {
	case BackendMemory:
	case BackendSQS:
		for name, url := range map[string]string{
			"REQUEST_QUEUE_URL":      c.RequestQueueURL,
			"CONFIRMATION_QUEUE_URL": c.ConfirmationQueueURL,
			"REMINDER_QUEUE_URL":     c.ReminderQueueURL,
		} {
			if !strings.HasPrefix(url, "https://") && !strings.HasPrefix(url, "http://") {
				errs = append(errs, fmt.Errorf("%s must be a queue URL when QUEUE_BACKEND is sqs", name))
			}
		}
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when QUEUE_BACKEND is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("QUEUE_BACKEND must be memory, sqs or redis, got %q", c.QueueBackend))
	}

	if !timeutil.IsValidTimezone(c.ClinicTimezone) {
		errs = append(errs, fmt.Errorf("CLINIC_TIMEZONE %q is not a valid IANA zone", c.ClinicTimezone))
	}

	if hours, err := c.BusinessHours(); err != nil {
		errs = append(errs, err)
	} else if hours.Open >= hours.Close {
		errs = append(errs, errors.New("BUSINESS_HOURS_START must be before BUSINESS_HOURS_END"))
	}

	if c.ReminderLeadTime <= 0 {
		errs = append(errs, errors.New("REMINDER_LEAD_TIME must be positive"))
	}
	if c.RetentionDays <= 0 {
		errs = append(errs, errors.New("RETENTION_DAYS must be positive"))
	}
	if c.WorkerBatchSize <= 0 || c.WorkerBatchSize > 10 {
		errs = append(errs, errors.New("WORKER_BATCH_SIZE must be between 1 and 10"))
	}
	if c.WorkerPollInterval <= 0 {
		errs = append(errs, errors.New("WORKER_POLL_INTERVAL must be positive"))
	}

	for _, ch := range c.Channels() {
		switch ch {
		case ChannelLog, ChannelSNS:
		case ChannelSendGrid:
			if c.SendGridAPIKey == "" || c.NotifyFromEmail == "" {
				errs = append(errs, errors.New("SENDGRID_API_KEY and NOTIFY_FROM_EMAIL are required for the sendgrid channel"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown notification channel %q", ch))
		}
	}

	return errors.Join(errs...)
}
