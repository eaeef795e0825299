package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the application tables when they do not exist yet.
// Movie metadata columns mirror the external catalog payload; genres and
// cast are stored as JSON since they are only ever read back whole.  The
// show_seats table is the denormalized seat-occupancy map: one row per held
// seat, with the (show_id, seat_label) primary key enforcing that a label
// belongs to at most one booking at a time.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id BIGINT UNSIGNED PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			overview TEXT NOT NULL,
			poster_path VARCHAR(255) NOT NULL DEFAULT '',
			backdrop_path VARCHAR(255) NOT NULL DEFAULT '',
			genres JSON NOT NULL,
			casts JSON NOT NULL,
			release_date VARCHAR(10) NOT NULL DEFAULT '',
			runtime_minutes INT UNSIGNED NOT NULL DEFAULT 0,
			vote_average DOUBLE NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS shows (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			movie_id BIGINT UNSIGNED NOT NULL,
			show_datetime DATETIME NOT NULL,
			price_cents INT UNSIGNED NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_shows_movie (movie_id),
			KEY idx_shows_datetime (show_datetime),
			CONSTRAINT fk_shows_movie FOREIGN KEY (movie_id) REFERENCES movies (id)
		)`,
		`CREATE TABLE IF NOT EXISTS show_seats (
			show_id BIGINT UNSIGNED NOT NULL,
			seat_label VARCHAR(8) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (show_id, seat_label),
			CONSTRAINT fk_show_seats_show FOREIGN KEY (show_id) REFERENCES shows (id)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			public_ref CHAR(36) NOT NULL,
			show_id BIGINT UNSIGNED NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			amount_cents INT UNSIGNED NOT NULL,
			is_paid TINYINT(1) NOT NULL DEFAULT 0,
			payment_link VARCHAR(512) NOT NULL DEFAULT '',
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_bookings_ref (public_ref),
			KEY idx_bookings_user (user_id),
			KEY idx_bookings_due (is_paid, expires_at),
			CONSTRAINT fk_bookings_show FOREIGN KEY (show_id) REFERENCES shows (id)
		)`,
		`CREATE TABLE IF NOT EXISTS booking_seats (
			booking_id BIGINT UNSIGNED NOT NULL,
			position INT UNSIGNED NOT NULL,
			seat_label VARCHAR(8) NOT NULL,
			PRIMARY KEY (booking_id, position),
			CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL,
			image VARCHAR(512) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			user_id VARCHAR(64) NOT NULL,
			movie_id BIGINT UNSIGNED NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, movie_id)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
