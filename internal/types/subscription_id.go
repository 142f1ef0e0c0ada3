package types

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/go-openapi/errors"
)

// maxNumberExponent bounds exponents of numeric ids before they are expanded, uint256 has 78 digits.
const maxNumberExponent = 100

// SubscriptionID is the raw subscription identifier as sent by clients.
// Both JSON strings ("7") and JSON numbers (7) are accepted. Strings are kept verbatim,
// integral numbers written as 7.0 or 1e1 are reduced to their base-10 digits, the
// remaining interpretation happens in the signing pipeline.
type SubscriptionID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (m *SubscriptionID) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*m = SubscriptionID(s)
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return errors.New(400, "subscriptionId must be a string or a number")
	}

	*m = SubscriptionID(normalizeNumber(n))
	return nil
}

// normalizeNumber rewrites integral numbers with a fraction or exponent as plain digits.
// Anything else is returned unchanged and left for the validator to reject.
func normalizeNumber(n json.Number) string {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		return s
	}

	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil || exp > maxNumberExponent || exp < -maxNumberExponent {
			return s
		}
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return s
	}

	return r.Num().String()
}

// String returns the raw identifier.
func (m SubscriptionID) String() string {
	return string(m)
}
