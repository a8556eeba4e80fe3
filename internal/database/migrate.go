package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// schema is applied in order on startup.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		display_name VARCHAR(120) NOT NULL DEFAULT '',
		role ENUM('CLIENT','RESTAURANT','ADMIN') NOT NULL DEFAULT 'CLIENT',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS restaurants (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		owner_id BIGINT UNSIGNED NOT NULL UNIQUE,
		name VARCHAR(160) NOT NULL,
		city VARCHAR(120) NOT NULL DEFAULT '',
		address VARCHAR(255) NOT NULL DEFAULT '',
		cuisine VARCHAR(80) NOT NULL DEFAULT '',
		description TEXT NOT NULL,
		phone VARCHAR(40) NOT NULL DEFAULT '',
		certified TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_restaurants_city (city),
		CONSTRAINT fk_restaurant_owner FOREIGN KEY (owner_id) REFERENCES users(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS menu_items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(160) NOT NULL,
		description TEXT NOT NULL,
		price_cents INT UNSIGNED NOT NULL DEFAULT 0,
		gluten_free TINYINT(1) NOT NULL DEFAULT 1,
		image_url VARCHAR(512) NULL,
		available TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_menu_restaurant (restaurant_id),
		CONSTRAINT fk_menu_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) PRIMARY KEY,
		client_id BIGINT UNSIGNED NOT NULL,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		booking_date CHAR(10) NOT NULL,
		booking_time CHAR(5) NOT NULL,
		guest_count INT NOT NULL,
		status ENUM('pending','confirmed','cancelled','completed') NOT NULL DEFAULT 'pending',
		qr_token VARCHAR(255) NOT NULL,
		has_arrived TINYINT(1) NOT NULL DEFAULT 0,
		arrived_at DATETIME NULL,
		can_review TINYINT(1) NOT NULL DEFAULT 0,
		special_requests VARCHAR(500) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bookings_qr (qr_token),
		INDEX idx_bookings_client (client_id, created_at),
		INDEX idx_bookings_restaurant (restaurant_id, booking_date, booking_time),
		INDEX idx_bookings_status (status, booking_date),
		CONSTRAINT fk_booking_client FOREIGN KEY (client_id) REFERENCES users(id),
		CONSTRAINT fk_booking_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id CHAR(36) PRIMARY KEY,
		booking_id CHAR(36) NOT NULL UNIQUE,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		client_id BIGINT UNSIGNED NOT NULL,
		rating TINYINT UNSIGNED NOT NULL,
		comment TEXT NOT NULL,
		is_verified TINYINT(1) NOT NULL DEFAULT 0,
		owner_reply TEXT NULL,
		replied_at DATETIME NULL,
		hidden TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_reviews_restaurant (restaurant_id, created_at),
		CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 1 AND 5),
		CONSTRAINT fk_review_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS favorites (
		client_id BIGINT UNSIGNED NOT NULL,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (client_id, restaurant_id),
		CONSTRAINT fk_fav_client FOREIGN KEY (client_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_fav_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id CHAR(36) PRIMARY KEY,
		recipient_id BIGINT UNSIGNED NOT NULL,
		type VARCHAR(40) NOT NULL,
		title VARCHAR(160) NOT NULL,
		body VARCHAR(1000) NOT NULL,
		booking_id CHAR(36) NULL,
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_notifications_recipient (recipient_id, is_read, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		restaurant_id BIGINT UNSIGNED NOT NULL,
		amount_cents BIGINT UNSIGNED NOT NULL,
		description VARCHAR(255) NOT NULL DEFAULT '',
		paid_at DATETIME NOT NULL,
		INDEX idx_payments_paid_at (paid_at),
		CONSTRAINT fk_payment_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the tables the service needs when they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logrus.WithField("statements", len(schema)).Info("database schema up to date")
	return nil
}
