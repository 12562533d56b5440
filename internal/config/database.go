// internal/config/database.go
package config

import (
	"fmt"
)

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// Missing reports the connection settings that must be present before a
// connection is attempted.
func (d *DatabaseConfig) Missing() []string {
	var missing []string
	if d.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if d.Database == "" {
		missing = append(missing, "DB_NAME")
	}
	if d.User == "" {
		missing = append(missing, "DB_USER")
	}
	return missing
}
