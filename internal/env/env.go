package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/openbuilders/jetton-airdrop/internal/errors"
)

const NotExists = "~!-===X===-!~"

// GetString retrieves the value of the environment variable named by the key.
// It returns the value, or if the variable is not present, it returns the defaultValue.
func GetString(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	return value
}

// MustGetString returns the value of a required variable. Unset and blank
// values are both reported as missing configuration.
func MustGetString(key string) (string, error) {
	value := strings.TrimSpace(GetString(key, ""))
	if value == "" {
		return "", errors.New(errors.MissingConfiguration,
			"Please provide "+key+" in .env file")
	}
	return value, nil
}

// GetBool returns true if the env variable with the key set and is truthy and
// defaultValue otherwise.
func GetBool(key string, defaultValue bool) bool {
	strValue := GetString(key, NotExists)
	if strValue == NotExists {
		return defaultValue
	}

	if strValue == "1" || strValue == "true" {
		return true
	}

	return false
}

// GetInt returns an integer if the env variable with the key set and contains
// an integer and defaultValue otherwise.
func GetInt(key string, defaultValue int) int {
	strValue := GetString(key, NotExists)
	if strValue == NotExists {
		return defaultValue
	}

	intValue, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		return defaultValue
	}

	return int(intValue)
}

// GetUint64 is GetInt for unsigned 64-bit values.
func GetUint64(key string, defaultValue uint64) uint64 {
	strValue := GetString(key, NotExists)
	if strValue == NotExists {
		return defaultValue
	}

	value, err := strconv.ParseUint(strings.TrimSpace(strValue), 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
