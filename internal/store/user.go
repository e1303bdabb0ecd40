package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shebashongskar/apiserver/types"
)

const userColumns = `id, first_name, last_name, email, phone, alt_phone, police_station, nid,
		birthdate, age, present_address, permanent_address, password_hash, role, active,
		last_login_at, profile_image, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, strings.ToLower(email)))
}

func (r *UserRepository) GetByNID(ctx context.Context, nid string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE nid = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, nid))
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Email = strings.ToLower(user.Email)

	const query = `
		INSERT INTO users (first_name, last_name, email, phone, alt_phone, police_station, nid,
			birthdate, age, present_address, permanent_address, password_hash, role, active,
			profile_image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.AltPhone,
		user.PoliceStation,
		user.NID,
		user.Birthdate,
		user.Age,
		user.PresentAddress,
		user.PermanentAddress,
		user.PasswordHash,
		user.Role,
		user.Active,
		user.ProfileImage,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// UpdateProfile persists the citizen-editable contact fields only.
func (r *UserRepository) UpdateProfile(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()

	const query = `
		UPDATE users
		SET phone = $1,
			alt_phone = $2,
			present_address = $3,
			permanent_address = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Phone,
		user.AltPhone,
		user.PresentAddress,
		user.PermanentAddress,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return r.GetByID(ctx, user.ID)
}

// UpdateLastLogin bumps the last-login timestamp.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	const query = `
		UPDATE users
		SET last_login_at = $1
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row) (types.User, error) {
	var user types.User
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.AltPhone,
		&user.PoliceStation,
		&user.NID,
		&user.Birthdate,
		&user.Age,
		&user.PresentAddress,
		&user.PermanentAddress,
		&user.PasswordHash,
		&user.Role,
		&user.Active,
		&lastLogin,
		&user.ProfileImage,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	if lastLogin.Valid {
		user.LastLoginAt = &lastLogin.Time
	}
	return user, nil
}
