package env

import (
	"testing"

	"github.com/openbuilders/jetton-airdrop/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	t.Setenv("AIRDROP_TEST_BOOL", "true")
	t.Setenv("AIRDROP_TEST_INT", "17")
	t.Setenv("AIRDROP_TEST_BAD_INT", "seventeen")
	t.Setenv("AIRDROP_TEST_UINT", " 1000000000 ")

	assert.True(t, GetBool("AIRDROP_TEST_BOOL", false))
	assert.True(t, GetBool("AIRDROP_TEST_UNSET", true))
	assert.Equal(t, 17, GetInt("AIRDROP_TEST_INT", 1))
	assert.Equal(t, 1, GetInt("AIRDROP_TEST_BAD_INT", 1))
	assert.Equal(t, uint64(1_000_000_000), GetUint64("AIRDROP_TEST_UINT", 1))
	assert.Equal(t, "fallback", GetString("AIRDROP_TEST_UNSET", "fallback"))
}

func TestMustGetString(t *testing.T) {
	t.Setenv("AIRDROP_TEST_REQUIRED", "  ")

	_, err := MustGetString("AIRDROP_TEST_REQUIRED")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.MissingConfiguration))
	assert.Equal(t, "Please provide AIRDROP_TEST_REQUIRED in .env file", err.Error())

	t.Setenv("AIRDROP_TEST_REQUIRED", "EQ...")
	value, err := MustGetString("AIRDROP_TEST_REQUIRED")
	require.NoError(t, err)
	assert.Equal(t, "EQ...", value)
}
