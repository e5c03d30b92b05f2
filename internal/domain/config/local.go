package config

import "strings"

// LocalConfig holds per-checkout defaults stored in .lunex/config.local.json
type LocalConfig struct {
	Network string `json:"network,omitempty"`
	Signer  string `json:"signer,omitempty"`
}

// ConfigKey represents a configuration key
type ConfigKey string

const (
	ConfigKeyNetwork ConfigKey = "network"
	ConfigKeySigner  ConfigKey = "signer"
)

// ValidConfigKeys returns all valid configuration keys
func ValidConfigKeys() []ConfigKey {
	return []ConfigKey{ConfigKeyNetwork, ConfigKeySigner}
}

// ParseConfigKey normalizes and validates a key
func ParseConfigKey(key string) (ConfigKey, bool) {
	k := ConfigKey(strings.ToLower(strings.TrimSpace(key)))
	for _, valid := range ValidConfigKeys() {
		if k == valid {
			return k, true
		}
	}
	return "", false
}

// Get returns the value stored under a key
func (c *LocalConfig) Get(key ConfigKey) string {
	switch key {
	case ConfigKeyNetwork:
		return c.Network
	case ConfigKeySigner:
		return c.Signer
	}
	return ""
}

// Set stores a value under a key; an empty value clears it
func (c *LocalConfig) Set(key ConfigKey, value string) {
	switch key {
	case ConfigKeyNetwork:
		c.Network = value
	case ConfigKeySigner:
		c.Signer = value
	}
}
