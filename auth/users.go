package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Roles known to the dashboard.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// User is a dashboard account. Departments restricts a viewer to the trips
// of those departments; empty means the whole fleet.
type User struct {
	Username     string   `json:"username"`
	PasswordHash string   `json:"password_hash"`
	Role         string   `json:"role"`
	Departments  []string `json:"departments"`
}

// IsAdmin reports whether u may import data.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Users authenticates against a fixed list of bcrypt-hashed accounts.
type Users struct {
	byName map[string]User
}

// NewUsers indexes the accounts by lower-cased username.
func NewUsers(list []User) (*Users, error) {
	u := &Users{byName: make(map[string]User, len(list))}
	for _, usr := range list {
		key := strings.ToLower(strings.TrimSpace(usr.Username))
		if key == "" {
			return nil, fmt.Errorf("user without username")
		}
		if usr.PasswordHash == "" {
			return nil, fmt.Errorf("user %s: password_hash is required", usr.Username)
		}
		if _, dup := u.byName[key]; dup {
			return nil, fmt.Errorf("duplicate user %s", usr.Username)
		}
		if usr.Role == "" {
			usr.Role = RoleViewer
		}
		u.byName[key] = usr
	}
	return u, nil
}

// Authenticate checks the password of username.
func (u *Users) Authenticate(username, password string) (User, error) {
	usr, ok := u.byName[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

// Lookup returns the account named username.
func (u *Users) Lookup(username string) (User, bool) {
	usr, ok := u.byName[strings.ToLower(strings.TrimSpace(username))]
	return usr, ok
}

// HashPassword returns the bcrypt hash stored in the users config.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("empty password")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
