package database

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"voicehub/internal/config"
)

type Database struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewDatabase(cfg *config.Config, logger *zap.Logger) (*Database, error) {
	// Build PostgreSQL connection string
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connected successfully",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("dbname", cfg.Database.DBName),
	)

	database := &Database{
		DB:     db,
		logger: logger,
	}

	// Run migrations
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return database, nil
}

func (d *Database) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			system_prompt TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS business_settings (
			client_id VARCHAR(64) PRIMARY KEY REFERENCES clients(id),
			business_name VARCHAR(255) DEFAULT '',
			description TEXT DEFAULT '',
			greeting TEXT DEFAULT '',
			timezone VARCHAR(64) DEFAULT 'UTC',
			hours TEXT DEFAULT '[]',
			services TEXT DEFAULT '[]',
			faqs TEXT DEFAULT '[]',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS oauth_connections (
			id SERIAL PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			provider VARCHAR(32) NOT NULL,
			account_label VARCHAR(255) DEFAULT '',
			access_token TEXT NOT NULL,
			refresh_token TEXT DEFAULT '',
			scope TEXT DEFAULT '',
			expires_at TIMESTAMP,
			metadata TEXT DEFAULT '{}',
			status VARCHAR(16) DEFAULT 'active',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (client_id, provider)
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_subscriptions_zapier (
			id VARCHAR(36) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			hook_url TEXT NOT NULL,
			event VARCHAR(64) NOT NULL,
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (client_id, hook_url, event)
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_subscriptions_make (
			id VARCHAR(36) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			hook_url TEXT NOT NULL,
			event VARCHAR(64) NOT NULL,
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (client_id, hook_url, event)
		)`,
		`CREATE TABLE IF NOT EXISTS webhook_subscriptions_n8n (
			id VARCHAR(36) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			hook_url TEXT NOT NULL,
			event VARCHAR(64) NOT NULL,
			active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (client_id, hook_url, event)
		)`,
		`CREATE TABLE IF NOT EXISTS client_automations (
			id SERIAL PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			recipe VARCHAR(64) NOT NULL,
			provider VARCHAR(32) NOT NULL,
			enabled BOOLEAN DEFAULT FALSE,
			config TEXT DEFAULT '{}',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (client_id, recipe)
		)`,
		`CREATE TABLE IF NOT EXISTS hook_api_keys (
			id SERIAL PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL UNIQUE,
			key_hash VARCHAR(64) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS leads (
			id VARCHAR(36) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) DEFAULT '',
			phone VARCHAR(32) DEFAULT '',
			email VARCHAR(255) DEFAULT '',
			source VARCHAR(64) DEFAULT '',
			notes TEXT DEFAULT '',
			status VARCHAR(32) DEFAULT 'new',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id VARCHAR(36) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) DEFAULT '',
			phone VARCHAR(32) DEFAULT '',
			service VARCHAR(255) DEFAULT '',
			starts_at TIMESTAMP NOT NULL,
			ends_at TIMESTAMP NOT NULL,
			notes TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS escalations (
			id VARCHAR(36) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			call_id VARCHAR(64) DEFAULT '',
			reason TEXT DEFAULT '',
			caller VARCHAR(32) DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS call_records (
			id SERIAL PRIMARY KEY,
			call_id VARCHAR(64) NOT NULL UNIQUE,
			client_id VARCHAR(64) NOT NULL,
			from_number VARCHAR(32) DEFAULT '',
			to_number VARCHAR(32) DEFAULT '',
			status VARCHAR(32) DEFAULT '',
			started_at TIMESTAMP,
			duration_seconds INTEGER DEFAULT 0,
			summary TEXT DEFAULT '',
			transcript TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS delivery_logs (
			id SERIAL PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL,
			platform VARCHAR(16) NOT NULL,
			hook_url TEXT NOT NULL,
			event VARCHAR(64) NOT NULL,
			status_code INTEGER DEFAULT 0,
			error TEXT DEFAULT '',
			duration_ms BIGINT DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_oauth_connections_client ON oauth_connections(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_client ON leads(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_client_starts ON bookings(client_id, starts_at)`,
		`CREATE INDEX IF NOT EXISTS idx_call_records_client ON call_records(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_logs_client ON delivery_logs(client_id)`,
	}

	for _, stmt := range statements {
		if _, err := d.DB.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

func (d *Database) Close() error {
	return d.DB.Close()
}
