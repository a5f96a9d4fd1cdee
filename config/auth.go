package config

import (
	"fmt"
	"time"

	"github.com/corner-25/test-umc-sub000/auth"
)

// AuthConfig holds the dashboard accounts and session signing settings.
type AuthConfig struct {
	// Secret signs session tokens; at least 16 bytes.
	Secret       string        `json:"secret"`
	SessionTTL   time.Duration `json:"session_ttl"`
	SecureCookie bool          `json:"secure_cookie"`
	Users        []auth.User   `json:"users"`
}

func (c *AuthConfig) SetDefaults() {
	if c.SessionTTL <= 0 {
		c.SessionTTL = 12 * time.Hour
	}
}

// Validate allows an empty config so that CLI commands work without
// accounts; serve checks Enabled.
func (c AuthConfig) Validate() error {
	if len(c.Users) == 0 {
		return nil
	}
	if len(c.Secret) < 16 {
		return fmt.Errorf("secret must be at least 16 bytes")
	}
	for _, u := range c.Users {
		switch u.Role {
		case "", auth.RoleAdmin, auth.RoleViewer:
		default:
			return fmt.Errorf("user %s: unknown role %s", u.Username, u.Role)
		}
	}
	return nil
}

// Enabled reports whether any account is configured.
func (c AuthConfig) Enabled() bool { return len(c.Users) > 0 }
