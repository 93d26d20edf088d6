package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	authPostgres "github.com/frahmantamala/dialer-dashboard/internal/auth/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/core/events"
	"github.com/frahmantamala/dialer-dashboard/internal/dialer"
	dialerPostgres "github.com/frahmantamala/dialer-dashboard/internal/dialer/postgres"
	"github.com/frahmantamala/dialer-dashboard/internal/notification"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start the worker pools that run outside the request path: scheduled calls and mail delivery.`,
}

var dialerWorkerCmd = &cobra.Command{
	Use:   "dialer",
	Short: "Dial scheduled calls when they are due",
	Run: func(cmd *cobra.Command, args []string) {
		startDialerWorker()
	},
}

var mailerWorkerCmd = &cobra.Command{
	Use:   "mailer",
	Short: "Send a test message through the mail queue",
	Long:  `Start the mail queue with the configured SMTP settings and deliver one verification email to --to.`,
	Run: func(cmd *cobra.Command, args []string) {
		startMailerWorker()
	},
}

var (
	maxWorkers   int
	jobQueueSize int
	pollInterval time.Duration
	batchSize    int
	dialerURL    string
	mailTo       string
)

func startDialerWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	dialerConfig := config.Dialer
	dialerConfig.BaseURL = getStringFlag(dialerURL, dialerConfig.BaseURL)
	dialerConfig.MaxWorkers = getIntFlag(maxWorkers, dialerConfig.MaxWorkers)
	dialerConfig.JobQueueSize = getIntFlag(jobQueueSize, dialerConfig.JobQueueSize)
	dialerConfig.BatchSize = getIntFlag(batchSize, dialerConfig.BatchSize)
	if pollInterval > 0 {
		dialerConfig.PollInterval = pollInterval
	}
	if dialerConfig.BaseURL == "" {
		lg.Error("AI Dialer URL is not configured; refusing to start")
		os.Exit(1)
	}

	db, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	gdb, err := openGorm(db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open gorm: %v\n", err)
		os.Exit(1)
	}

	bus := events.NewEventBus(lg)
	subscribeEventLogging(bus, lg)

	store := dialerPostgres.NewStore(gdb).WithReclaimAfter(dialerConfig.ReclaimAfter)
	policy := auth.NewABACPolicy(authPostgres.NewRepository(gdb), lg)
	service := dialer.NewService(dialer.NewClient(dialerConfig, lg), store, policy, bus, lg)
	runner := dialer.NewRunner(service, store, dialerConfig, lg)

	lg.Info("starting dialer worker",
		"max_workers", dialerConfig.MaxWorkers,
		"job_queue_size", dialerConfig.JobQueueSize,
		"poll_interval", dialerConfig.PollInterval,
		"dialer_url", dialerConfig.BaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner.Run(ctx, 30*time.Second)

	waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := bus.Wait(waitCtx); err != nil {
		lg.Warn("event handlers still running at exit", "error", err)
	}
	lg.Info("dialer worker shutdown complete")
}

func startMailerWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	if mailTo == "" {
		lg.Error("--to is required")
		os.Exit(1)
	}

	queue := notification.NewQueue(notification.NewSender(config.Mail, lg), config.Mail, lg)
	queue.Start()

	msg, err := notification.VerificationEmail(mailTo, "ABC123", int(config.Security.OTPTTL/time.Minute))
	if err != nil {
		lg.Error("failed to render test message", "error", err)
		os.Exit(1)
	}
	if err := queue.Enqueue(msg); err != nil {
		lg.Error("failed to queue test message", "error", err)
		os.Exit(1)
	}
	lg.Info("test message queued", "to", mailTo, "host", config.Mail.Host)

	// retries back off, so give them room before draining
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	queue.Shutdown(ctx)
	lg.Info("mail queue shutdown complete")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	dialerWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	dialerWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	dialerWorkerCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Due calls claimed per poll (overrides config)")
	dialerWorkerCmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Time between polls (overrides config)")
	dialerWorkerCmd.Flags().StringVar(&dialerURL, "dialer-url", "", "AI dialer base URL (overrides config)")
	mailerWorkerCmd.Flags().StringVar(&mailTo, "to", "", "Recipient of the test message")

	workerCmd.AddCommand(dialerWorkerCmd)
	workerCmd.AddCommand(mailerWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
