package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/clinic-scheduler/internal/db"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/awsclient"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/broker"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/notify"
	"github.com/BruksfildServices01/clinic-scheduler/internal/queue"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timeutil"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/worker"
)

// app holds the process-wide wiring, assembled once per command.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	clock  timeutil.Clock

	store    domain.Store
	db       *gorm.DB
	broker   queue.Broker
	claimer  ucAppointment.Claimer
	notifier notify.Sender
	audit    *audit.Dispatcher

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error

	closers []func()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadConfig is shared by every command.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, newLogger(nil), err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load config")
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		clock:  timeutil.NewClock(cfg.Location()),
	}

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openBroker(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openNotifier(ctx); err != nil {
		a.Close()
		return nil, err
	}

	var recorder audit.Recorder = audit.NewLogRecorder(logger)
	if a.db != nil {
		recorder = audit.NewGormRecorder(a.db, cfg.AuditTable)
	}
	a.audit = audit.NewDispatcher(recorder, logger)
	a.closers = append(a.closers, a.audit.Close)

	logger.Info().
		Str("store", cfg.StoreBackend).
		Str("queue", cfg.QueueBackend).
		Strs("notify", cfg.Channels()).
		Str("timezone", cfg.ClinicTimezone).
		Msg("scheduler configured")
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// requireDurableStore rejects the in-process store for commands that exit
// right after writing.
func requireDurableStore(cfg *config.Config, command string) error {
	if cfg.StoreBackend == config.BackendMemory {
		return fmt.Errorf("%s needs a persistent store: STORE_BACKEND=memory would lose the record on exit", command)
	}
	return nil
}

// requireDurableQueue is requireDurableStore for the queue backend.
func requireDurableQueue(cfg *config.Config, command string) error {
	if cfg.QueueBackend == config.BackendMemory {
		return fmt.Errorf("%s needs a shared queue: QUEUE_BACKEND=memory would lose the message on exit", command)
	}
	return nil
}

func (a *app) aws(ctx context.Context) (aws.Config, error) {
	a.awsOnce.Do(func() {
		a.awsCfg, a.awsErr = awsclient.Load(ctx, awsclient.Options{
			Region:          a.cfg.AWSRegion,
			Endpoint:        a.cfg.AWSEndpointURL,
			AccessKeyID:     a.cfg.AWSAccessKeyID,
			SecretAccessKey: a.cfg.AWSSecretAccessKey,
		})
	})
	return a.awsCfg, a.awsErr
}

// ======================================================
// STORE
// ======================================================

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StoreBackend {
	case config.BackendPostgres:
		gdb, err := dbpkg.NewDB(a.cfg)
		if err != nil {
			return err
		}
		a.db = gdb
		a.store = repository.NewAppointmentGormRepository(gdb)
		a.closers = append(a.closers, func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})

	case config.BackendDynamoDB:
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return err
		}
		a.store = repository.NewAppointmentDynamoRepository(
			awsclient.NewDynamoDB(awsCfg),
			repository.DynamoTables{
				Appointments: a.cfg.AppointmentsTable,
				Patients:     a.cfg.PatientsTable,
			},
		)

	default:
		a.store = repository.NewMemoryStore()
	}
	return nil
}

// ======================================================
// QUEUE
// ======================================================

func (a *app) openBroker(ctx context.Context) error {
	var rdb *redis.Client
	if a.cfg.RedisURL != "" {
		opts, err := redis.ParseURL(a.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	}

	switch a.cfg.QueueBackend {
	case config.BackendSQS:
		awsCfg, err := a.aws(ctx)
		if err != nil {
			return err
		}
		a.broker = broker.NewSQS(awsclient.NewSQS(awsCfg), a.clock, a.logger)

	case config.BackendRedis:
		a.broker = broker.NewRedis(rdb, a.clock)

	default:
		a.broker = broker.NewMemory(a.clock)
	}

	switch {
	case rdb != nil:
		a.claimer = broker.NewRedisClaimer(rdb)
	case a.cfg.QueueBackend == config.BackendMemory:
		a.claimer = broker.NewMemoryClaimer(a.clock)
	}
	return nil
}

// ======================================================
// NOTIFICATIONS
// ======================================================

func (a *app) openNotifier(ctx context.Context) error {
	templates := notify.NewTemplateEngine()

	var senders notify.Fanout
	for _, ch := range a.cfg.Channels() {
		switch ch {
		case config.ChannelLog:
			senders = append(senders, notify.NewLogSender(a.logger, templates))
		case config.ChannelSendGrid:
			senders = append(senders, notify.NewSendGridSender(
				a.cfg.SendGridAPIKey,
				a.cfg.NotifyFromName,
				a.cfg.NotifyFromEmail,
				templates,
			))
		case config.ChannelSNS:
			awsCfg, err := a.aws(ctx)
			if err != nil {
				return err
			}
			senders = append(senders, notify.NewSNSSender(awsclient.NewSNS(awsCfg), a.cfg.NotifySMSSender, templates))
		}
	}

	switch len(senders) {
	case 0:
		a.notifier = notify.NewLogSender(a.logger, templates)
	case 1:
		a.notifier = senders[0]
	default:
		a.notifier = senders
	}
	return nil
}

// ======================================================
// STAGES
// ======================================================

type stage struct {
	queue     string
	processor worker.Processor
}

const (
	stageIntake       = "intake"
	stageConfirmation = "confirmation"
	stageReminder     = "reminder"
)

var stageNames = []string{stageIntake, stageConfirmation, stageReminder}

func (a *app) stages() (map[string]stage, error) {
	hours, err := a.cfg.BusinessHours()
	if err != nil {
		return nil, err
	}
	loc := a.cfg.Location()

	validator := domain.NewValidator(hours, loc)
	scheduler := domain.NewScheduler(a.cfg.ReminderLeadTime, loc)

	return map[string]stage{
		stageIntake: {
			queue: a.cfg.RequestQueueURL,
			processor: ucAppointment.NewProcessRequests(
				a.store,
				validator,
				a.broker,
				a.cfg.ConfirmationQueueURL,
				a.clock,
				a.cfg.Retention(),
				a.audit,
				a.logger,
			),
		},
		stageConfirmation: {
			queue: a.cfg.ConfirmationQueueURL,
			processor: ucAppointment.NewProcessConfirmations(
				a.store,
				scheduler,
				a.notifier,
				a.broker,
				a.cfg.ReminderQueueURL,
				a.clock,
				a.audit,
				a.logger,
			),
		},
		stageReminder: {
			queue: a.cfg.ReminderQueueURL,
			processor: ucAppointment.NewProcessReminders(
				a.store,
				a.notifier,
				a.claimer,
				a.cfg.ReminderClaimTTL,
				a.clock,
				a.audit,
				a.logger,
			),
		},
	}, nil
}

func (a *app) workers(names []string) ([]*worker.Worker, error) {
	stages, err := a.stages()
	if err != nil {
		return nil, err
	}

	opts := worker.Options{
		BatchSize:    a.cfg.WorkerBatchSize,
		PollInterval: a.cfg.WorkerPollInterval,
	}

	out := make([]*worker.Worker, 0, len(names))
	for _, name := range names {
		st, ok := stages[name]
		if !ok {
			return nil, fmt.Errorf("unknown stage %q (want intake, confirmation, reminder or all)", name)
		}
		out = append(out, worker.New(name, a.broker, st.queue, st.processor, opts, a.logger))
	}
	return out, nil
}
