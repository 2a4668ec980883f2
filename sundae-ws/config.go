package sundaews

import (
	"fmt"
	"time"
)

// CarrierMode selects where the connect request carries the subscription
// identifier.
type CarrierMode string

const (
	CarrierHeader     CarrierMode = "header"
	CarrierQueryParam CarrierMode = "queryParam"
)

// DefaultTTL is the lifetime of a subscription record when none is configured.
const DefaultTTL = time.Hour

// Config is the deployment configuration shared by the connect path and the
// broadcaster.
type Config struct {
	// TopicKey names the resource attribute subscribers filter on, e.g. vehicleId.
	TopicKey    string      `json:"realTimeItemKey"`
	CarrierMode CarrierMode `json:"carrierMode"`
	TTLSeconds  int         `json:"ttlSeconds"`
	// Endpoint is the API Gateway management endpoint used to post to
	// connections. Only the Lambda broadcaster needs it.
	Endpoint string `json:"wsEndpoint"`
}

// Role identifies which entry point is validating the config, since each one
// needs a different subset of it.
type Role int

const (
	RoleConnect Role = iota
	RoleDisconnect
	RoleBroadcast
)

// TTL is how long a new subscription record is advertised as live.
func (c Config) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return DefaultTTL
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// Normalize fills in defaults.
func (c *Config) Normalize() {
	if c.CarrierMode == "" {
		c.CarrierMode = CarrierHeader
	}
}

// Validate reports the first missing or invalid option required by role.
func (c Config) Validate(role Role) error {
	switch role {
	case RoleConnect:
		if c.TopicKey == "" {
			return fmt.Errorf("real time item key is not set")
		}
		switch c.CarrierMode {
		case CarrierHeader, CarrierQueryParam:
		default:
			return fmt.Errorf("unknown carrier mode %q: expected %v or %v", c.CarrierMode, CarrierHeader, CarrierQueryParam)
		}
		if c.TTLSeconds < 0 {
			return fmt.Errorf("subscription ttl must not be negative")
		}
	case RoleBroadcast:
		if c.TopicKey == "" {
			return fmt.Errorf("real time item key is not set")
		}
	}
	return nil
}
