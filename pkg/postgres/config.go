package postgres

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds connection pool configuration.
type ClientConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxConns        int
	MinConns        int
	DialTimeout     time.Duration
	ConnMaxLifetime time.Duration
}

// WithHost sets host.
func WithHost(host string) ClientOption {
	return func(c *ClientConfig) {
		c.Host = host
	}
}

// WithPort sets port.
func WithPort(port int) ClientOption {
	return func(c *ClientConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

// WithDatabase sets database name.
func WithDatabase(db string) ClientOption {
	return func(c *ClientConfig) {
		c.Database = db
	}
}

// WithCredentials sets user and password.
func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.User = user
		c.Password = password
	}
}

// WithSSLMode sets sslmode (disable, require, verify-full).
func WithSSLMode(mode string) ClientOption {
	return func(c *ClientConfig) {
		if mode != "" {
			c.SSLMode = mode
		}
	}
}

// WithPoolSize sets max and min pool connections.
func WithPoolSize(max, min int) ClientOption {
	return func(c *ClientConfig) {
		if max > 0 {
			c.MaxConns = max
		}
		if min > 0 {
			c.MinConns = min
		}
	}
}

// WithDialTimeout sets connect timeout.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if d > 0 {
			c.DialTimeout = d
		}
	}
}
