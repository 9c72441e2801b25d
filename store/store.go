package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postboard/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreatePost(ctx context.Context, author, body string) (*models.Post, error) {
	now := s.now()
	post := &models.Post{Author: author, Body: body, CreatedAt: now, UpdatedAt: now}

	err := s.db.QueryRowContext(ctx, `
        INSERT INTO posts (author, body, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, author, body, now, now).Scan(&post.ID)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	return post, nil
}

// ListPosts returns every post, newest first, with its response count.
func (s *Store) ListPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT
            p.id,
            COALESCE(p.author, ''),
            COALESCE(p.body, ''),
            p.created_at,
            p.updated_at,
            COUNT(r.id) AS response_count
        FROM posts p
        LEFT JOIN responses r ON r.post_id = p.id
        GROUP BY p.id, p.author, p.body, p.created_at, p.updated_at
        ORDER BY p.created_at DESC, p.id DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Author, &p.Body, &p.CreatedAt, &p.UpdatedAt, &p.ResponseCount); err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return posts, nil
}

func (s *Store) GetPost(ctx context.Context, id int) (*models.Post, error) {
	var p models.Post
	err := s.db.QueryRowContext(ctx, `
        SELECT id, COALESCE(author, ''), COALESCE(body, ''), created_at, updated_at
        FROM posts
        WHERE id = $1
    `, id).Scan(&p.ID, &p.Author, &p.Body, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching post %d: %w", id, err)
	}
	return &p, nil
}

// DeletePost removes a post together with its responses.
func (s *Store) DeletePost(ctx context.Context, id int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE post_id = $1`, id); err != nil {
		tx.Rollback()
		return fmt.Errorf("error deleting responses of post %d: %w", id, err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error deleting post %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err != nil {
		tx.Rollback()
		return err
	} else if n == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// CreateResponse stores a response to an existing post.
func (s *Store) CreateResponse(ctx context.Context, postID int, author, body string) (*models.Response, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}

	now := s.now()
	resp := &models.Response{PostID: postID, Author: author, Body: body, CreatedAt: now, UpdatedAt: now}
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO responses (post_id, author, body, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, postID, author, body, now, now).Scan(&resp.ID)
	if err != nil {
		return nil, fmt.Errorf("error creating response: %w", err)
	}
	return resp, nil
}

// ListResponses returns the responses to a post, oldest first.
func (s *Store) ListResponses(ctx context.Context, postID int) ([]models.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, COALESCE(post_id, 0), COALESCE(author, ''), COALESCE(body, ''), created_at, updated_at
        FROM responses
        WHERE post_id = $1
        ORDER BY created_at ASC, id ASC
    `, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing responses: %w", err)
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(&r.ID, &r.PostID, &r.Author, &r.Body, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning response: %w", err)
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}
	return responses, nil
}

func (s *Store) GetResponse(ctx context.Context, id int) (*models.Response, error) {
	var r models.Response
	err := s.db.QueryRowContext(ctx, `
        SELECT id, COALESCE(post_id, 0), COALESCE(author, ''), COALESCE(body, ''), created_at, updated_at
        FROM responses
        WHERE id = $1
    `, id).Scan(&r.ID, &r.PostID, &r.Author, &r.Body, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching response %d: %w", id, err)
	}
	return &r, nil
}

func (s *Store) DeleteResponse(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting response %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ModeratorByEmail looks up a moderator for login.
func (s *Store) ModeratorByEmail(ctx context.Context, email string) (*models.Moderator, error) {
	var m models.Moderator
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash FROM moderators WHERE email = $1`, email,
	).Scan(&m.ID, &m.Email, &m.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching moderator: %w", err)
	}
	return &m, nil
}

// ModeratorExists reports whether the id from a token still names a moderator.
func (s *Store) ModeratorExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM moderators WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking moderator: %w", err)
	}
	return exists, nil
}
