package agent

import (
	"math/big"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorSecretCheckedFirst(t *testing.T) {
	v := NewValidator("dev-secret")

	_, err := v.Validate(SigningRequest{Secret: "wrong", SubscriptionID: ""})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = v.Validate(SigningRequest{Secret: "", SubscriptionID: "7"})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = v.Validate(SigningRequest{Secret: "dev-secret", SubscriptionID: ""})
	assert.True(t, errors.Is(err, ErrBadRequest))

	id, err := v.Validate(SigningRequest{Secret: "dev-secret", SubscriptionID: "7"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.Int64())
}

func TestValidatorEmptySecretRejectsEverything(t *testing.T) {
	v := NewValidator("")

	_, err := v.Validate(SigningRequest{Secret: "", SubscriptionID: "7"})
	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestParseSubscriptionID(t *testing.T) {
	maxID := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	valid := map[string]*big.Int{
		"0":            big.NewInt(0),
		"7":            big.NewInt(7),
		" 42 ":         big.NewInt(42),
		"007":          big.NewInt(7),
		maxID.String(): maxID,
	}
	for raw, expected := range valid {
		id, err := ParseSubscriptionID(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, 0, expected.Cmp(id), raw)
	}

	overflow := new(big.Int).Add(maxID, big.NewInt(1)).String()
	invalid := []string{"", "   ", "-1", "1.5", "1e3", "0x10", "abc", "7a", overflow, strings.Repeat("9", 100)}
	for _, raw := range invalid {
		_, err := ParseSubscriptionID(raw)
		assert.True(t, errors.Is(err, ErrBadRequest), raw)
	}
}
