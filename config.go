package featuregate

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// FromEnv builds engine options from FEATUREGATE_* environment variables. A
// .env file in the working directory is loaded first when present, so local
// development can keep its settings out of the shell.
//
// Recognized variables: FEATUREGATE_BASE_URL, FEATUREGATE_ENVIRONMENT,
// FEATUREGATE_TIMEOUT_MS, FEATUREGATE_STALE_AFTER_HOURS.
func FromEnv() ([]Option, error) {
	_ = godotenv.Load()

	var options []Option
	if v := os.Getenv("FEATUREGATE_BASE_URL"); v != "" {
		options = append(options, WithBaseURL(v))
	}
	if v := os.Getenv("FEATUREGATE_ENVIRONMENT"); v != "" {
		options = append(options, WithEnvironment(EnvironmentTag(v)))
	}
	if v := os.Getenv("FEATUREGATE_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("featuregate: invalid FEATUREGATE_TIMEOUT_MS %q", v)
		}
		options = append(options, WithTimeout(time.Duration(ms)*time.Millisecond))
	}
	if v := os.Getenv("FEATUREGATE_STALE_AFTER_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("featuregate: invalid FEATUREGATE_STALE_AFTER_HOURS %q", v)
		}
		options = append(options, WithStaleAfter(time.Duration(hours)*time.Hour))
	}
	return options, nil
}
