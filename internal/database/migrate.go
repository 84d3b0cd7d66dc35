package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Statements are idempotent so Migrate can run on every start.

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username       VARCHAR(30) NULL,
		email          VARCHAR(255) NOT NULL,
		password_hash  VARCHAR(255) NULL,
		status         VARCHAR(16) NOT NULL DEFAULT 'UNVERIFIED',
		otp_hash       CHAR(64) NULL,
		otp_expires_at DATETIME NULL,
		is_active      TINYINT(1) NOT NULL DEFAULT 1,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_username (username),
		KEY idx_users_otp_expires (otp_expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_hash (token_hash),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		organizer_id   BIGINT UNSIGNED NOT NULL,
		title          VARCHAR(200) NOT NULL,
		description    TEXT NOT NULL,
		event_date     DATE NOT NULL,
		time           VARCHAR(100) NOT NULL,
		location       VARCHAR(255) NOT NULL,
		image          VARCHAR(1024) NOT NULL,
		website        VARCHAR(1024) NOT NULL DEFAULT '',
		is_active      TINYINT(1) NOT NULL DEFAULT 1,
		average_rating DOUBLE NOT NULL DEFAULT 0,
		review_count   INT NOT NULL DEFAULT 0,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL,
		KEY idx_events_date (event_date),
		CONSTRAINT fk_events_organizer FOREIGN KEY (organizer_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		event_id   BIGINT UNSIGNED NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		user_name  VARCHAR(255) NOT NULL,
		rating     TINYINT NOT NULL,
		comment    TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uq_reviews_event_user (event_id, user_id),
		CONSTRAINT fk_reviews_event FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id   BIGINT UNSIGNED NOT NULL,
		user_id    BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (event_id, user_id),
		CONSTRAINT fk_attendees_event FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
		CONSTRAINT fk_attendees_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		username       TEXT NULL UNIQUE,
		email          TEXT NOT NULL UNIQUE,
		password_hash  TEXT NULL,
		status         TEXT NOT NULL DEFAULT 'UNVERIFIED',
		otp_hash       TEXT NULL,
		otp_expires_at DATETIME NULL,
		is_active      BOOLEAN NOT NULL DEFAULT 1,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_otp_expires ON users(otp_expires_at)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		organizer_id   INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL,
		event_date     DATE NOT NULL,
		time           TEXT NOT NULL,
		location       TEXT NOT NULL,
		image          TEXT NOT NULL,
		website        TEXT NOT NULL DEFAULT '',
		is_active      BOOLEAN NOT NULL DEFAULT 1,
		average_rating REAL NOT NULL DEFAULT 0,
		review_count   INTEGER NOT NULL DEFAULT 0,
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id   INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		user_name  TEXT NOT NULL,
		rating     INTEGER NOT NULL,
		comment    TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (event_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
		event_id   INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (event_id, user_id)
	)`,
}

// Migrate creates the schema for driver ("mysql" or "sqlite3").
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case "mysql":
		stmts = mysqlSchema
	case "sqlite3":
		stmts = sqliteSchema
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}
