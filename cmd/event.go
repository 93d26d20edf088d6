package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/core/events"
	"github.com/frahmantamala/dialer-dashboard/internal/notification"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish events onto an in-process bus to check handlers and mail delivery.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long: `Publish a test event to the event bus for testing and debugging.
signup.requested goes through the mail queue and sends a verification email to --email.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishTestEvent(args[0])
	},
}

var (
	eventEmail    string
	eventCampaign string
	eventContact  string
	eventData     string
)

// subscribeEventLogging records the dialer events that have no other consumer yet.
func subscribeEventLogging(bus *events.EventBus, lg *slog.Logger) {
	for _, t := range []string{events.EventTypeCallStarted, events.EventTypeCallFailed, events.EventTypeContactsImported} {
		bus.Subscribe(t, func(_ context.Context, e events.Event) error {
			lg.Info("event received",
				"event_id", e.EventID(),
				"event_type", e.EventType(),
				"payload", e.Payload())
			return nil
		})
	}
}

func testEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeSignupRequested:
		if eventEmail == "" {
			return nil, fmt.Errorf("--email is required for %s", eventType)
		}
		return events.NewSignupRequestedEvent(eventEmail, "Test", "ABC123"), nil
	case events.EventTypeCallStarted:
		return events.NewCallStartedEvent("test-log", fmt.Sprintf("CA-test-%d", time.Now().Unix()), eventCampaign, eventContact), nil
	case events.EventTypeCallFailed:
		return events.NewCallFailedEvent(eventCampaign, eventContact, eventData), nil
	case events.EventTypeContactsImported:
		return events.NewContactsImportedEvent("test-admin", eventCampaign, 1, 0), nil
	}
	return events.BaseEvent{
		ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}, nil
}

func publishTestEvent(eventType string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	subscribeEventLogging(bus, lg)

	queue := notification.NewQueue(notification.NewSender(cfg.Mail, lg), cfg.Mail, lg)
	queue.Subscribe(bus, int(cfg.Security.OTPTTL/time.Minute))
	queue.Start()

	event, err := testEvent(eventType)
	if err != nil {
		return err
	}

	lg.Info("publishing test event", "event_type", eventType, "event_id", event.EventID())
	ctx := context.Background()
	if err := bus.PublishSync(ctx, event); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	lg.Info("test event published successfully")
	return nil
}

func init() {
	publishEventCmd.Flags().StringVar(&eventEmail, "email", "", "Recipient for signup.requested")
	publishEventCmd.Flags().StringVar(&eventCampaign, "campaign", "test-campaign", "Campaign id for call events")
	publishEventCmd.Flags().StringVar(&eventContact, "contact", "test-contact", "Contact id for call events")
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
