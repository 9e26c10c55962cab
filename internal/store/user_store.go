package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/grvbrk/vidtube_server/internal/models"
)

type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, id string) (*models.User, error)
}

func (pg *PostgresUserStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	query := `
	INSERT INTO users (google_id, name, email, image, role)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at, updated_at;
	`
	err := pg.db.QueryRowContext(ctx, query, user.GoogleID, user.Name, user.Email, user.ImageSrc, user.Role).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error running create user query: %w", err)
	}

	return nil
}

func (pg *PostgresUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return pg.getUser(ctx, `WHERE id = $1`, id)
}

func (pg *PostgresUserStore) GetUserByGoogleID(ctx context.Context, id string) (*models.User, error) {
	return pg.getUser(ctx, `WHERE google_id = $1`, id)
}

func (pg *PostgresUserStore) getUser(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	user := &models.User{}

	query := `
	SELECT id, google_id, name, email, image, role, created_at, updated_at
	FROM users
	` + where

	err := pg.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.GoogleID,
		&user.Name,
		&user.Email,
		&user.ImageSrc,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error running get user query: %w", err)
	}

	return user, nil
}
