// internal/workers/booking/send-booking-confirmation/config.go
package sendbookingconfirmation

import "time"

type Config struct {
	Timeout      time.Duration
	FromEmail    string
	AWSRegion    string
	EmailEnabled bool
	SMSEnabled   bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		FromEmail:    "bookings@example.com",
		AWSRegion:    "eu-central-1",
		EmailEnabled: true,
		SMSEnabled:   true,
	}
}
