package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Seed describes the initial rows SeedData inserts.
type Seed struct {
	ModeratorEmail        string
	ModeratorPasswordHash string
}

const welcomeBody = "Welcome! Tap a post to respond to it."

// SeedData populates an empty database with a welcome post and, when given, a
// moderator account. Running it again changes nothing.
func SeedData(ctx context.Context, db *sql.DB, seed Seed) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	now := time.Now().UTC()

	var posts int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&posts); err != nil {
		tx.Rollback()
		return fmt.Errorf("error counting posts: %w", err)
	}
	if posts == 0 {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO posts (author, body, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
			"postboard", welcomeBody, now, now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error seeding posts: %w", err)
		}
	}

	if seed.ModeratorEmail != "" && seed.ModeratorPasswordHash != "" {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO moderators (email, password_hash, created_at) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING`,
			seed.ModeratorEmail, seed.ModeratorPasswordHash, now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error seeding moderators: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}
