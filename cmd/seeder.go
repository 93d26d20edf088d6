package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedAdminEmail    = "admin@dialer.local"
	seedEmployeeEmail = "agent@dialer.local"
	seedPassword      = "password"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with an admin, an employee, a campaign and a few contacts for development.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		if clearData {
			if err := clearTables(ctx, db); err != nil {
				return err
			}
			lg.Info("existing data cleared")
		}

		var exists int
		if err := db.GetContext(ctx, &exists, "SELECT COUNT(1) FROM users WHERE email = $1", seedAdminEmail); err != nil {
			return fmt.Errorf("lookup seed admin: %w", err)
		}
		if exists > 0 {
			lg.Info("seed admin already exists; nothing to do", "email", seedAdminEmail)
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), cfg.Security.BCryptCost)
		if err != nil {
			return err
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if err := seed(ctx, tx, string(hash)); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		lg.Info("seed data created", "admin", seedAdminEmail, "employee", seedEmployeeEmail, "password", seedPassword)
		return nil
	},
}

type seedUser struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	Now          time.Time `db:"now"`
}

type seedContact struct {
	ID      string    `db:"id"`
	Name    string    `db:"name"`
	Phone   string    `db:"phone"`
	AdminID string    `db:"admin_id"`
	Now     time.Time `db:"now"`
}

func seed(ctx context.Context, tx *sqlx.Tx, passwordHash string) error {
	now := time.Now().UTC()
	admin := seedUser{ID: uuid.NewString(), Name: "Demo Admin", Email: seedAdminEmail, PasswordHash: passwordHash, Role: "ADMIN", Now: now}
	agent := seedUser{ID: uuid.NewString(), Name: "Demo Agent", Email: seedEmployeeEmail, PasswordHash: passwordHash, Role: "EMPLOYEE", Now: now}

	const insertUser = `INSERT INTO users (id, name, email, username, password_hash, role, status, email_verified, created_at, updated_at)
		VALUES (:id, :name, :email, :email, :password_hash, :role, 'ACTIVE', :now, :now, :now)`
	for _, u := range []seedUser{admin, agent} {
		if _, err := tx.NamedExecContext(ctx, insertUser, u); err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO admin_settings (id, user_id, plan_type, available_credits, features, created_at, updated_at)
		 VALUES ($1, $2, 'FREE', 100, '{}', $3, $3)`,
		uuid.NewString(), admin.ID, now); err != nil {
		return fmt.Errorf("insert admin settings: %w", err)
	}

	perms := permission.Default()
	perms.Contacts.View = true
	perms.Contacts.Create = true
	perms.Campaigns.View = true
	perms.CallLogs.View = true
	employeeID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO employees (id, user_id, admin_id, permissions, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5)`,
		employeeID, agent.ID, admin.ID, perms, now); err != nil {
		return fmt.Errorf("insert employee: %w", err)
	}

	campaignID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, description, status, settings, system_message, initial_message, admin_id, created_at, updated_at)
		 VALUES ($1, 'Spring Outreach', 'Sample campaign', 'ACTIVE', '{}', $2, $3, $4, $5, $5)`,
		campaignID,
		"You are a friendly assistant booking demo appointments.",
		"Hi, do you have a minute to talk about a demo?",
		admin.ID, now); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO campaign_employees (campaign_id, employee_id, created_at) VALUES ($1, $2, $3)`,
		campaignID, employeeID, now); err != nil {
		return fmt.Errorf("assign employee: %w", err)
	}

	contacts := []seedContact{
		{ID: uuid.NewString(), Name: "Ann Lee", Phone: "+15550000001", AdminID: admin.ID, Now: now},
		{ID: uuid.NewString(), Name: "Bob Stone", Phone: "+15550000002", AdminID: admin.ID, Now: now},
		{ID: uuid.NewString(), Name: "Cara Diaz", Phone: "+15550000003", AdminID: admin.ID, Now: now},
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO contacts (id, name, phone, status, admin_id, created_at, updated_at)
		 VALUES (:id, :name, :phone, 'ACTIVE', :admin_id, :now, :now)`, contacts); err != nil {
		return fmt.Errorf("insert contacts: %w", err)
	}
	for _, c := range contacts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO contact_tags (contact_id, tag) VALUES ($1, 'lead')`, c.ID); err != nil {
			return fmt.Errorf("tag contact: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO campaign_contacts (id, campaign_id, contact_id, status, call_attempts, created_at, updated_at)
			 VALUES ($1, $2, $3, 'ACTIVE', 0, $4, $4)`,
			uuid.NewString(), campaignID, c.ID, now); err != nil {
			return fmt.Errorf("link contact: %w", err)
		}
	}
	return nil
}
