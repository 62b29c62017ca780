// internal/workers/booking/request-booking/config.go
package requestbooking

import "time"

type Config struct {
	Timeout         time.Duration
	CacheTTL        time.Duration
	DefaultTimezone string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		CacheTTL:        5 * time.Minute,
		DefaultTimezone: "UTC",
	}
}
