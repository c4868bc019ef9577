package storage

import (
	"fmt"
	"strings"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// NormalizeDriver maps a configured driver name onto DriverMemory or
// DriverSQLite. Unknown names are returned lowercased.
func NormalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "", DriverMemory:
		return DriverMemory
	case DriverSQLite, "sqlite3":
		return DriverSQLite
	default:
		return d
	}
}

// Persistent reports whether runs saved through driver outlive the process.
func Persistent(driver string) bool {
	return NormalizeDriver(driver) == DriverSQLite
}

// Open returns the run store selected by config. An empty driver means memory.
func Open(config StorageConfig) (RunStore, error) {
	switch NormalizeDriver(config.Driver) {
	case DriverMemory:
		return NewMemoryStorage(), nil
	case DriverSQLite:
		return NewSQLiteStorage(config.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.Driver)
	}
}
