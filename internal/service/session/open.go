package session

import (
	"fmt"
	"strings"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open builds the store selected by driver. dsn is ignored for the memory driver.
func Open(driver, dsn string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		if dsn == "" {
			return nil, fmt.Errorf("sqlite store requires a database path")
		}
		return OpenSQLite(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires a connection string")
		}
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}
