package store

import "fmt"

// Driver identifiers supported by the session domain.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// New creates a session store based on the provided configuration.
func New(cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(cfg.MaxPerUser), nil
	case DriverRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis driver requires connection parameters")
		}
		return NewRedis(*cfg.Redis, cfg.MaxPerUser)
	default:
		return nil, fmt.Errorf("unsupported session store driver: %s", driver)
	}
}
