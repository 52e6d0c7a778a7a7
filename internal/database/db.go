package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-ticket-server/internal/utils"
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

// schema creates the five tables if they do not exist. Seat rows carry the
// uniqueness constraint on (showtime_id, seat_code): it is what turns a
// concurrent double-provision into a detectable duplicate-key error instead
// of duplicate seats. Tickets deliberately have no such constraint; the
// "one active ticket per seat" invariant is enforced by the seat row lock
// in the booking engine, so a cancelled ticket never blocks a rebooking.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(64) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role ENUM('user','admin') NOT NULL DEFAULT 'user',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS movies (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		duration_min INT UNSIGNED NOT NULL DEFAULT 0,
		PRIMARY KEY (id)
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS showtimes (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		movie_id BIGINT UNSIGNED NOT NULL,
		start_time VARCHAR(40) NOT NULL,
		hall VARCHAR(64) NOT NULL,
		price BIGINT NOT NULL,
		PRIMARY KEY (id),
		KEY idx_showtimes_movie (movie_id),
		CONSTRAINT fk_showtimes_movie FOREIGN KEY (movie_id)
			REFERENCES movies (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS seats (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		showtime_id BIGINT UNSIGNED NOT NULL,
		seat_code VARCHAR(8) NOT NULL,
		status ENUM('available','booked') NOT NULL DEFAULT 'available',
		booked_by BIGINT UNSIGNED NULL,
		booked_at VARCHAR(40) NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_seats_showtime_code (showtime_id, seat_code),
		CONSTRAINT fk_seats_showtime FOREIGN KEY (showtime_id)
			REFERENCES showtimes (id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		showtime_id BIGINT UNSIGNED NOT NULL,
		seat_code VARCHAR(8) NOT NULL,
		created_at VARCHAR(40) NOT NULL,
		status ENUM('active','cancelled') NOT NULL DEFAULT 'active',
		PRIMARY KEY (id),
		KEY idx_tickets_user (user_id),
		KEY idx_tickets_seat (showtime_id, seat_code),
		CONSTRAINT fk_tickets_user FOREIGN KEY (user_id) REFERENCES users (id),
		CONSTRAINT fk_tickets_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id)
	) ENGINE=InnoDB`,
}

// InitSchema creates all tables and guarantees the bootstrap administrator
// account exists. It is safe to call on every startup.
func InitSchema(ctx context.Context, db *sql.DB, bcryptCost int) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return ensureAdmin(ctx, db, bcryptCost)
}

// Default credentials of the bootstrap administrator. The account is only
// inserted when no user named "admin" exists yet, so changing its password
// later survives restarts.
const (
	AdminUsername        = "admin"
	DefaultAdminPassword = "admin123"
)

func ensureAdmin(ctx context.Context, db *sql.DB, bcryptCost int) error {
	var id uint64
	err := db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username=? LIMIT 1", AdminUsername).Scan(&id)
	if err == nil {
		return nil // already bootstrapped
	}
	if err != sql.ErrNoRows {
		return err
	}
	hash, err := utils.HashPassword(DefaultAdminPassword, bcryptCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?,?,?)",
		AdminUsername, hash, "admin")
	if err != nil && isDuplicateKey(err) {
		// Two processes bootstrapping at once; the unique username
		// constraint already guarantees a single admin row.
		return nil
	}
	return err
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
