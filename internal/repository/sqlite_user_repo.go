package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"drive-auth/internal/domain"
)

// SQLiteUserRepository implementa UserRepository sobre la base embebida.
type SQLiteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isSQLiteConstraint(err error) bool {
	var serr *msqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	code := serr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY ||
		code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}

func (r *SQLiteUserRepository) Insert(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.Token,
		user.FirstName, user.LastName, user.MiddleName, user.BirthDate, string(user.Gender),
		string(user.AuthProvider), user.GoogleID,
		user.ProfilePhotoURI, user.DriverLicenseNumber, user.DriverLicenseIssueDate,
		user.DriverLicensePhotoURI, user.PassportPhotoURI,
		toMillis(user.CreatedAt), toMillis(user.LastLogin),
		user.RegistrationStep, user.RegistrationCompleted, user.DocumentsUploaded,
	)
	if isSQLiteConstraint(err) {
		return ErrDuplicate
	}
	return err
}

func (r *SQLiteUserRepository) Update(ctx context.Context, user domain.User) error {
	const query = `
		UPDATE users SET
			password_hash = ?, token = ?,
			first_name = ?, last_name = ?, middle_name = ?, birth_date = ?, gender = ?,
			auth_provider = ?, google_id = ?,
			profile_photo_uri = ?, driver_license_number = ?, driver_license_issue_date = ?,
			driver_license_photo_uri = ?, passport_photo_uri = ?,
			last_login = ?,
			registration_step = ?, registration_completed = ?, documents_uploaded = ?
		WHERE email = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		user.PasswordHash, user.Token,
		user.FirstName, user.LastName, user.MiddleName, user.BirthDate, string(user.Gender),
		string(user.AuthProvider), user.GoogleID,
		user.ProfilePhotoURI, user.DriverLicenseNumber, user.DriverLicenseIssueDate,
		user.DriverLicensePhotoURI, user.PassportPhotoURI,
		toMillis(user.LastLogin),
		user.RegistrationStep, user.RegistrationCompleted, user.DocumentsUploaded,
		user.Email,
	)
	if err != nil {
		return err
	}
	return requireRowChanged(res)
}

func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteUserRepository) GetByToken(ctx context.Context, token string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE token = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *SQLiteUserRepository) UpdateToken(ctx context.Context, email, token string) error {
	const query = `UPDATE users SET token = ? WHERE email = ?`
	res, err := r.db.ExecContext(ctx, query, token, email)
	if err != nil {
		return err
	}
	return requireRowChanged(res)
}

func (r *SQLiteUserRepository) UpdateLastLogin(ctx context.Context, email string, at time.Time) error {
	const query = `UPDATE users SET last_login = ? WHERE email = ?`
	res, err := r.db.ExecContext(ctx, query, toMillis(at), email)
	if err != nil {
		return err
	}
	return requireRowChanged(res)
}

func (r *SQLiteUserRepository) DeleteByEmail(ctx context.Context, email string) error {
	const query = `DELETE FROM users WHERE email = ?`
	res, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return err
	}
	return requireRowChanged(res)
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users`
	var n int
	err := r.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

func (r *SQLiteUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	return r.queryMany(ctx, query)
}

func (r *SQLiteUserRepository) LastRegistered(ctx context.Context) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query))
}

func (r *SQLiteUserRepository) ListIncomplete(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE registration_step < 3 ORDER BY created_at`
	return r.queryMany(ctx, query)
}

func (r *SQLiteUserRepository) DeleteIncompleteBefore(ctx context.Context, threshold time.Time) (int64, error) {
	const query = `DELETE FROM users WHERE registration_step < 3 AND created_at < ?`
	res, err := r.db.ExecContext(ctx, query, toMillis(threshold))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRowChanged(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteUserRepository) scanOne(row *sql.Row) (domain.User, error) {
	var u domain.User
	var gender, provider string
	var createdAt, lastLogin int64
	err := row.Scan(
		&u.Email, &u.PasswordHash, &u.Token,
		&u.FirstName, &u.LastName, &u.MiddleName, &u.BirthDate, &gender,
		&provider, &u.GoogleID,
		&u.ProfilePhotoURI, &u.DriverLicenseNumber, &u.DriverLicenseIssueDate,
		&u.DriverLicensePhotoURI, &u.PassportPhotoURI,
		&createdAt, &lastLogin,
		&u.RegistrationStep, &u.RegistrationCompleted, &u.DocumentsUploaded,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.Gender = domain.Gender(gender)
	u.AuthProvider = domain.AuthProvider(provider)
	u.CreatedAt = fromMillis(createdAt)
	u.LastLogin = fromMillis(lastLogin)
	return u, nil
}

func (r *SQLiteUserRepository) queryMany(ctx context.Context, query string) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var gender, provider string
		var createdAt, lastLogin int64
		if err := rows.Scan(
			&u.Email, &u.PasswordHash, &u.Token,
			&u.FirstName, &u.LastName, &u.MiddleName, &u.BirthDate, &gender,
			&provider, &u.GoogleID,
			&u.ProfilePhotoURI, &u.DriverLicenseNumber, &u.DriverLicenseIssueDate,
			&u.DriverLicensePhotoURI, &u.PassportPhotoURI,
			&createdAt, &lastLogin,
			&u.RegistrationStep, &u.RegistrationCompleted, &u.DocumentsUploaded,
		); err != nil {
			return nil, err
		}
		u.Gender = domain.Gender(gender)
		u.AuthProvider = domain.AuthProvider(provider)
		u.CreatedAt = fromMillis(createdAt)
		u.LastLogin = fromMillis(lastLogin)
		users = append(users, u)
	}
	return users, rows.Err()
}
