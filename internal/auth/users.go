package auth

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// User roles. Anyone can browse and chat; sellers can also post listings.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// ValidRole returns true if r is a known role.
func ValidRole(r string) bool {
	return r == RoleBuyer || r == RoleSeller
}

// User represents a registered user.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages users in SQLite.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// GetOrCreate returns the user for an email, registering them as a buyer
// on first sight. Signup is open; the magic link proves email ownership.
func (s *UserStore) GetOrCreate(email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	u, err := s.GetByEmail(email)
	if err == nil {
		return u, nil
	}

	if _, err := s.db.Exec(
		"INSERT INTO users (email, role) VALUES (?, ?)", email, RoleBuyer,
	); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	return s.GetByEmail(email)
}

// GetByEmail returns a user by email.
func (s *UserStore) GetByEmail(email string) (*User, error) {
	var u User
	err := s.db.QueryRow(
		"SELECT id, email, name, role, phone, created_at FROM users WHERE email = ?",
		strings.ToLower(email),
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Phone, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// UpdateProfile sets the display name and phone for a user.
func (s *UserStore) UpdateProfile(email, name, phone string) error {
	result, err := s.db.Exec(
		"UPDATE users SET name = ?, phone = ? WHERE email = ?",
		strings.TrimSpace(name), strings.TrimSpace(phone), strings.ToLower(email),
	)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	return requireRow(result, "user not found")
}

// SetRole changes a user's role.
func (s *UserStore) SetRole(email, role string) error {
	if !ValidRole(role) {
		return fmt.Errorf("invalid role: %s", role)
	}

	result, err := s.db.Exec(
		"UPDATE users SET role = ? WHERE email = ?", role, strings.ToLower(email),
	)
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	return requireRow(result, "user not found")
}

// List returns all users ordered by email.
func (s *UserStore) List() ([]*User, error) {
	rows, err := s.db.Query(
		"SELECT id, email, name, role, phone, created_at FROM users ORDER BY email",
	)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("warning: closing rows: %v\n", cerr)
		}
	}()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.Phone, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}

// Delete removes a user by email.
func (s *UserStore) Delete(email string) error {
	result, err := s.db.Exec("DELETE FROM users WHERE email = ?", strings.ToLower(email))
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return requireRow(result, "user not found")
}

func requireRow(result sql.Result, notFound string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s", notFound)
	}
	return nil
}
