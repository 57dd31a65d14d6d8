package validator

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	maxDownloadsCap = 100
	maxTTL          = 7 * 24 * time.Hour
)

func IsUUID(s string) (bool, uuid.UUID) {
	id, err := uuid.Parse(s)
	return err == nil, id
}

// ValidateMaxDownloads parses the optional per-upload download budget.
// Empty means "use the configured default".
func ValidateMaxDownloads(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, errors.New("max_downloads must be a positive integer")
	}
	if n > maxDownloadsCap {
		return 0, errors.New("max_downloads exceeds the allowed maximum")
	}

	return uint32(n), nil
}

// ValidateTTL parses the optional per-upload TTL, given in seconds.
// Empty means "use the configured default".
func ValidateTTL(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("ttl_seconds must be a positive integer")
	}

	ttl := time.Duration(n) * time.Second
	if ttl > maxTTL {
		return 0, errors.New("ttl_seconds exceeds the allowed maximum")
	}

	return ttl, nil
}
