package user

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var ErrUserNotFound = errors.New("user not found")

type Repository interface {
	createUser(user *User) error
	getUserByID(id string) (*User, error)
	getUserByUsernameOrEmail(usernameOrEmail string) (*User, error)
	userExistsByUsernameOrEmail(username, email string) (*User, error)
	updateLastLogin(userID string, at time.Time) error
	updateCategories(userID string, categories []string) error
	updateProfile(userID, name, username string) error
	updateHashToken(userID, hashToken string) error
	deleteUser(userID string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) Repository {
	return &userRepository{
		db: db,
	}
}

const userColumns = `id, name, username, email, password_hash, categories, expense_logged, hash_token, first_signup_at, last_login_at, created_at, updated_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var categories pgtype.FlatArray[string]
	var lastLogin sql.NullTime
	m := pgtype.NewMap()
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash,
		m.SQLScanner(&categories), &u.ExpenseLogged, &u.HashToken,
		&u.FirstSignupAt, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("could not find user: %v", err)
	}
	u.Categories = categories
	if u.Categories == nil {
		u.Categories = []string{}
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

func (r *userRepository) createUser(user *User) error {
	query := `
		INSERT INTO users (name, username, email, password_hash, categories, hash_token, first_signup_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW())
		RETURNING id, expense_logged, first_signup_at, created_at, updated_at;
	`
	m := pgtype.NewMap()
	categories, err := encodeTextArray(m, user.Categories)
	if err != nil {
		return fmt.Errorf("could not encode categories: %v", err)
	}
	err = r.db.QueryRow(query, user.Name, user.Username, user.Email, user.PasswordHash, categories, user.HashToken).
		Scan(&user.ID, &user.ExpenseLogged, &user.FirstSignupAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not create user: %v", err)
	}
	return nil
}

// encodeTextArray renders a []string as a Postgres text[] literal for the
// stdlib driver, which has no native slice support.
func encodeTextArray(m *pgtype.Map, values []string) (string, error) {
	buf, err := m.Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, values, nil)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (r *userRepository) getUserByID(id string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return scanUser(r.db.QueryRow(query, id))
}

func (r *userRepository) getUserByUsernameOrEmail(usernameOrEmail string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 OR email = $1`, userColumns)
	return scanUser(r.db.QueryRow(query, usernameOrEmail))
}

func (r *userRepository) userExistsByUsernameOrEmail(username, email string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1 OR email = $2`, userColumns)
	return scanUser(r.db.QueryRow(query, username, email))
}

func (r *userRepository) updateLastLogin(userID string, at time.Time) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = $1, updated_at = NOW() WHERE id = $2`, at, userID)
	if err != nil {
		return fmt.Errorf("could not update last login: %v", err)
	}
	return nil
}

func (r *userRepository) updateCategories(userID string, categories []string) error {
	m := pgtype.NewMap()
	encoded, err := encodeTextArray(m, categories)
	if err != nil {
		return fmt.Errorf("could not encode categories: %v", err)
	}
	result, err := r.db.Exec(`UPDATE users SET categories = $1, updated_at = NOW() WHERE id = $2`, encoded, userID)
	if err != nil {
		return fmt.Errorf("could not update categories: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read update result: %v", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) updateProfile(userID, name, username string) error {
	result, err := r.db.Exec(`UPDATE users SET name = $1, username = $2, updated_at = NOW() WHERE id = $3`, name, username, userID)
	if err != nil {
		return fmt.Errorf("could not update profile: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read update result: %v", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) updateHashToken(userID, hashToken string) error {
	_, err := r.db.Exec(`UPDATE users SET hash_token = $1, updated_at = NOW() WHERE id = $2`, hashToken, userID)
	if err != nil {
		return fmt.Errorf("could not update hash token: %v", err)
	}
	return nil
}

func (r *userRepository) deleteUser(userID string) error {
	result, err := r.db.Exec(`DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("could not delete user: %v", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read delete result: %v", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
