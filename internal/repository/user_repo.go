package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dailyfix/internal/fault"
	"dailyfix/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, u *model.User) (int64, error) {
	query := `
        INSERT INTO users (name, email, role, active, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        RETURNING id
    `
	var id int64
	err := r.db.QueryRow(ctx, query, u.Name, u.Email, u.Role, u.Active).Scan(&id)
	return id, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
        SELECT id, name, email, role, active, created_at
        FROM users
        WHERE email = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.Active,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("user %s", email)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FirstByRole returns the first user holding the given role, ordered by id.
func (r *UserRepository) FirstByRole(ctx context.Context, role string) (*model.User, error) {
	query := `
        SELECT id, name, email, role, active, created_at
        FROM users
        WHERE role = $1
        ORDER BY id
        LIMIT 1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, role).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Role,
		&u.Active,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.NotFoundf("no user with role %s", role)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) ListActive(ctx context.Context) ([]model.User, error) {
	query := `
        SELECT id, name, email, role, active, created_at
        FROM users
        WHERE active = TRUE
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
