package cmd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
)

// configGetter retrieves raw configuration values by dotted key path.
type configGetter func(key string) any

// validateStartupConfig validates startup configuration from the shared config source.
// It returns an error when any configured value is malformed or violates constraints.
func validateStartupConfig() error {
	return validateStartupConfigWithGetter(func(key string) any {
		return gconfig.S.Get(key)
	})
}

// validateStartupConfigWithGetter validates startup configuration via a key-value getter.
// It accepts a value getter and returns nil when all configured values are valid.
func validateStartupConfigWithGetter(get configGetter) error {
	if get == nil {
		return errors.New("config getter is nil")
	}

	validationErrs := make([]string, 0)

	validateServerConfig(get, &validationErrs)
	validateAuthConfig(get, &validationErrs)
	validateRateLimitConfig(get, &validationErrs)
	validateLLMConfig(get, &validationErrs)

	if len(validationErrs) == 0 {
		return nil
	}

	return errors.Errorf("invalid configuration:\n - %s", strings.Join(validationErrs, "\n - "))
}

// validateServerConfig validates listener and request-shaping settings.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateServerConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "listen", errs)
	validateOptionalURL(get, "settings.frontend_origin", errs)
	validateOptionalIntMin(get, "settings.max_body_bytes", 1, errs)
	validateOptionalStringNonEmpty(get, "settings.db.promptbox.addr", errs)
	validateOptionalStringNonEmpty(get, "settings.db.promptbox.db", errs)
}

// validateAuthConfig validates token signing settings.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateAuthConfig(get configGetter, errs *[]string) {
	validateOptionalStringNonEmpty(get, "settings.secret", errs)
	validateOptionalIntMin(get, "settings.jwt.expires_secs", 1, errs)
}

// validateRateLimitConfig validates the per-client request budget.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateRateLimitConfig(get configGetter, errs *[]string) {
	validateOptionalIntMin(get, "settings.ratelimit.window_secs", 1, errs)
	validateOptionalIntMin(get, "settings.ratelimit.max_requests", 1, errs)
}

// validateLLMConfig validates external completion service settings.
// It accepts a getter and an error collector pointer and appends validation errors.
func validateLLMConfig(get configGetter, errs *[]string) {
	validateOptionalURL(get, "settings.llm.api_base", errs)
	validateOptionalStringNonEmpty(get, "settings.llm.api_key", errs)
	validateOptionalIntMin(get, "settings.llm.timeout_secs", 1, errs)
}

// validateOptionalIntMin validates an optionally configured integer with a lower bound.
// It accepts a getter, the key, the minimum, and an error collector pointer and appends validation errors.
func validateOptionalIntMin(get configGetter, key string, min int, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictInt(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be an integer", key)
		return
	}

	if value < min {
		appendValidationError(errs, "%s must be >= %d", key, min)
	}
}

// validateOptionalURL validates an optionally configured absolute URL key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalURL(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string URL", key)
		return
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		appendValidationError(errs, "%s must not be empty", key)
		return
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		appendValidationError(errs, "%s must be a valid absolute URL", key)
	}
}

// validateOptionalStringNonEmpty validates an optionally configured non-empty string key.
// It accepts a getter, the key, and an error collector pointer and appends validation errors.
func validateOptionalStringNonEmpty(get configGetter, key string, errs *[]string) {
	raw := get(key)
	if raw == nil {
		return
	}

	value, parseErr := parseStrictString(raw)
	if parseErr != nil {
		appendValidationError(errs, "%s must be a string", key)
		return
	}

	if strings.TrimSpace(value) == "" {
		appendValidationError(errs, "%s must not be empty", key)
	}
}

// parseStrictInt parses a value as a strict integer.
// It accepts a raw value and returns the parsed int and an error when parsing fails.
func parseStrictInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if math.Trunc(v) != v {
			return 0, errors.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errors.New("empty integer string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, errors.Wrap(err, "atoi")
		}
		return parsed, nil
	default:
		return 0, errors.Errorf("unsupported int type %T", value)
	}
}

// parseStrictString parses a value as a strict string.
// It accepts a raw value and returns the parsed string and an error when parsing fails.
func parseStrictString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Errorf("unsupported string type %T", value)
	}
}

// appendValidationError appends a formatted validation error to the collector.
// It accepts an error slice pointer, a format string, and format arguments, and has no return value.
func appendValidationError(errs *[]string, format string, args ...any) {
	if errs == nil {
		return
	}
	*errs = append(*errs, fmt.Sprintf(format, args...))
}
