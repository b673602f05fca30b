package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"drive-auth/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByToken(ctx context.Context, token string) (domain.User, error)
	UpdateToken(ctx context.Context, email, token string) error
	UpdateLastLogin(ctx context.Context, email string, at time.Time) error
	DeleteByEmail(ctx context.Context, email string) error
	Count(ctx context.Context) (int, error)
	ListAll(ctx context.Context) ([]domain.User, error)
	LastRegistered(ctx context.Context) (domain.User, error)
	ListIncomplete(ctx context.Context) ([]domain.User, error)
	DeleteIncompleteBefore(ctx context.Context, threshold time.Time) (int64, error)
}

const userColumns = `
	email, password_hash, token,
	first_name, last_name, middle_name, birth_date, gender,
	auth_provider, google_id,
	profile_photo_uri, driver_license_number, driver_license_issue_date,
	driver_license_photo_uri, passport_photo_uri,
	created_at, last_login,
	registration_step, registration_completed, documents_uploaded`

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Insert(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err := r.pool.Exec(ctx, query,
		user.Email, user.PasswordHash, user.Token,
		user.FirstName, user.LastName, user.MiddleName, user.BirthDate, string(user.Gender),
		string(user.AuthProvider), user.GoogleID,
		user.ProfilePhotoURI, user.DriverLicenseNumber, user.DriverLicenseIssueDate,
		user.DriverLicensePhotoURI, user.PassportPhotoURI,
		user.CreatedAt, user.LastLogin,
		user.RegistrationStep, user.RegistrationCompleted, user.DocumentsUploaded,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users SET
			password_hash = $2, token = $3,
			first_name = $4, last_name = $5, middle_name = $6, birth_date = $7, gender = $8,
			auth_provider = $9, google_id = $10,
			profile_photo_uri = $11, driver_license_number = $12, driver_license_issue_date = $13,
			driver_license_photo_uri = $14, passport_photo_uri = $15,
			last_login = $16,
			registration_step = $17, registration_completed = $18, documents_uploaded = $19
		WHERE email = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.Email, user.PasswordHash, user.Token,
		user.FirstName, user.LastName, user.MiddleName, user.BirthDate, string(user.Gender),
		string(user.AuthProvider), user.GoogleID,
		user.ProfilePhotoURI, user.DriverLicenseNumber, user.DriverLicenseIssueDate,
		user.DriverLicensePhotoURI, user.PassportPhotoURI,
		user.LastLogin,
		user.RegistrationStep, user.RegistrationCompleted, user.DocumentsUploaded,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) GetByToken(ctx context.Context, token string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE token = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, token))
}

func (r *PgUserRepository) UpdateToken(ctx context.Context, email, token string) error {
	const query = `UPDATE users SET token = $2 WHERE email = $1`
	tag, err := r.pool.Exec(ctx, query, email, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	const query = `UPDATE users SET last_login = $2 WHERE email = $1`
	tag, err := r.pool.Exec(ctx, query, email, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) DeleteByEmail(ctx context.Context, email string) error {
	const query = `DELETE FROM users WHERE email = $1`
	tag, err := r.pool.Exec(ctx, query, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgUserRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users`
	var n int
	err := r.pool.QueryRow(ctx, query).Scan(&n)
	return n, err
}

func (r *PgUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *PgUserRepository) LastRegistered(ctx context.Context) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query))
}

func (r *PgUserRepository) ListIncomplete(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE registration_step < 3 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *PgUserRepository) DeleteIncompleteBefore(ctx context.Context, threshold time.Time) (int64, error) {
	const query = `DELETE FROM users WHERE registration_step < 3 AND created_at < $1`
	tag, err := r.pool.Exec(ctx, query, threshold)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgUserRepository) scanOne(row pgx.Row) (domain.User, error) {
	var u domain.User
	var gender, provider string
	err := row.Scan(
		&u.Email, &u.PasswordHash, &u.Token,
		&u.FirstName, &u.LastName, &u.MiddleName, &u.BirthDate, &gender,
		&provider, &u.GoogleID,
		&u.ProfilePhotoURI, &u.DriverLicenseNumber, &u.DriverLicenseIssueDate,
		&u.DriverLicensePhotoURI, &u.PassportPhotoURI,
		&u.CreatedAt, &u.LastLogin,
		&u.RegistrationStep, &u.RegistrationCompleted, &u.DocumentsUploaded,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.Gender = domain.Gender(gender)
	u.AuthProvider = domain.AuthProvider(provider)
	return u, nil
}

func (r *PgUserRepository) scanMany(rows pgx.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var u domain.User
		var gender, provider string
		if err := rows.Scan(
			&u.Email, &u.PasswordHash, &u.Token,
			&u.FirstName, &u.LastName, &u.MiddleName, &u.BirthDate, &gender,
			&provider, &u.GoogleID,
			&u.ProfilePhotoURI, &u.DriverLicenseNumber, &u.DriverLicenseIssueDate,
			&u.DriverLicensePhotoURI, &u.PassportPhotoURI,
			&u.CreatedAt, &u.LastLogin,
			&u.RegistrationStep, &u.RegistrationCompleted, &u.DocumentsUploaded,
		); err != nil {
			return nil, err
		}
		u.Gender = domain.Gender(gender)
		u.AuthProvider = domain.AuthProvider(provider)
		users = append(users, u)
	}
	return users, rows.Err()
}
