package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// dataTables lists every table holding tenant data, children first.
var dataTables = []string{
	"scheduled_calls",
	"appointments",
	"call_logs",
	"campaign_contacts",
	"contact_tags",
	"contacts",
	"campaign_employees",
	"campaigns",
	"employees",
	"refresh_tokens",
	"admin_settings",
	"users",
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all data but keep the schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := clearTables(cmd.Context(), db); err != nil {
			return err
		}
		logger.LoggerWrapper().Info("database cleared", "tables", len(dataTables))
		return nil
	},
}

func clearTables(ctx context.Context, db *sqlx.DB) error {
	if ctx == nil {
		ctx = context.Background()
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(dataTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}
	return nil
}
