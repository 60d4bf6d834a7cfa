package store

import (
	"fmt"

	"gorm.io/gorm"

	"luaspark-server/internal/domain/user/model"
)

// Driver identifiers supported by the user domain.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Dependencies captures external handles required by certain drivers.
type Dependencies struct {
	Logger   model.Logger
	SQLiteDB *gorm.DB
}

// New creates a user store based on the provided configuration.
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		return NewFile(cfg, deps.Logger)
	case DriverSQLite:
		if deps.SQLiteDB == nil {
			return nil, fmt.Errorf("sqlite driver requires database handle")
		}
		return NewSQLite(deps.SQLiteDB)
	default:
		return nil, fmt.Errorf("unsupported user store driver: %s", driver)
	}
}
