package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUUID(t *testing.T) {
	id := uuid.New()

	ok, parsed := IsUUID(id.String())
	require.True(t, ok)
	assert.Equal(t, id, parsed)

	ok, _ = IsUUID("not-a-uuid")
	assert.False(t, ok)
}

func TestValidateMaxDownloads(t *testing.T) {
	got, err := ValidateMaxDownloads("")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)

	got, err = ValidateMaxDownloads("5")
	require.NoError(t, err)
	assert.Equal(t, uint32(5), got)

	for _, bad := range []string{"0", "-1", "abc", "101"} {
		_, err = ValidateMaxDownloads(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestValidateTTL(t *testing.T) {
	got, err := ValidateTTL("")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), got)

	got, err = ValidateTTL("3600")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, got)

	for _, bad := range []string{"0", "-1", "soon", "999999999"} {
		_, err = ValidateTTL(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
