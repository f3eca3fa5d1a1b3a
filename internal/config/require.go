package config

import "fmt"

// Validate reports the first setting that makes the service unable to start.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("missing required env DATABASE_URL")
	}
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DatabaseDriver)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.ServerPort)
	}
	return nil
}
