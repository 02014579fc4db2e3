package store

import (
	"context"

	"splitbill/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Getter, name, email, passwordHash string) (int64, error) {
	var id int64
	err := tx.GetContext(ctx, &id, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, email, passwordHash)
	return id, err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)
	return user, err
}

func (s *UserStore) GetByID(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`, userID)
	return user, err
}

func (s *UserStore) UpdateProfile(ctx context.Context, tx Execer, userID int64, name, email string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET name = $1, email = $2
		WHERE id = $3
	`, name, email, userID)
	return err
}
