// Package money normalizes the monetary figures the Rootz API sends.
//
// THE THREE ENCODINGS PROBLEM:
// The upstream API stores amounts as MongoDB Decimal128, and depending on the
// endpoint (and its age) an amount arrives as one of:
//
//	42.1                         — a plain JSON number
//	"42.1"                       — a numeric string
//	{"$numberDecimal": "42.10"}  — the Decimal128 extended-JSON object
//
// All three must render identically ("42.10"), and a missing or malformed
// amount must degrade to "0.00" rather than fail a render — an earnings figure
// is never worth an error page.
//
// WHY shopspring/decimal?
// float64 cannot represent most decimal fractions exactly (0.1+0.2 != 0.3),
// which matters when the figure is money. decimal.Decimal keeps the exact
// value the server sent and formats it without float rounding surprises.
package money

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value as received from the upstream API.
//
// The zero Amount is "absent": it formats as "0.00" and is not positive.
// Amount is safe to use as a struct field without a pointer — absence is
// representable directly.
type Amount struct {
	dec   decimal.Decimal
	valid bool
}

// decimal128 matches the MongoDB extended-JSON encoding of Decimal128.
type decimal128 struct {
	NumberDecimal string `json:"$numberDecimal"`
}

// FromFloat builds an Amount from a float. Mostly a test convenience.
func FromFloat(f float64) Amount {
	return Amount{dec: decimal.NewFromFloat(f), valid: true}
}

// FromString builds an Amount from a numeric string.
// A non-numeric string yields the absent Amount.
func FromString(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return Amount{dec: d, valid: true}
}

// UnmarshalJSON accepts any of the three transport encodings.
//
// Malformed input is NOT an error: the Amount simply stays absent. This is
// deliberate — a bad amount in one tree node must not reject the whole
// profile payload it arrived in.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}

	// null, absent-by-convention
	if string(data) == "null" {
		return nil
	}

	// {"$numberDecimal": "..."}
	if len(data) > 0 && data[0] == '{' {
		var obj decimal128
		if err := json.Unmarshal(data, &obj); err == nil && obj.NumberDecimal != "" {
			*a = FromString(obj.NumberDecimal)
		}
		return nil
	}

	// "42.1"
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*a = FromString(s)
		}
		return nil
	}

	// 42.1
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Amount{dec: decimal.NewFromFloat(f), valid: true}
	}
	return nil
}

// MarshalJSON renders the two-decimal display string, quoted.
// The gateway always sends normalized strings to its own UI — the three-way
// encoding mess stops at this process boundary.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.Format())), nil
}

// Format returns the fixed two-decimal display string, "0.00" when absent.
func (a Amount) Format() string {
	if !a.valid {
		return "0.00"
	}
	return a.dec.StringFixed(2)
}

// Positive reports whether the amount is present and strictly greater than
// zero. The referral view uses this to decide whether an earnings line is
// shown at all.
func (a Amount) Positive() bool {
	return a.valid && a.dec.IsPositive()
}

// IsZero reports whether the amount is absent or exactly zero.
func (a Amount) IsZero() bool {
	return !a.valid || a.dec.IsZero()
}

// FormatAmount normalizes an arbitrary decoded-JSON value to a two-decimal
// display string.
//
// Accepted inputs: Amount, float64/int variants, a numeric string, or a
// map with a "$numberDecimal" key (what encoding/json produces for the
// extended-JSON object when decoded into any). Everything else — nil, a
// non-numeric string, an unrelated object — returns "0.00".
//
// Pure function, always returns a string, never an error.
func FormatAmount(v any) string {
	switch x := v.(type) {
	case Amount:
		return x.Format()
	case float64:
		return decimal.NewFromFloat(x).StringFixed(2)
	case float32:
		return decimal.NewFromFloat(float64(x)).StringFixed(2)
	case int:
		return decimal.NewFromInt(int64(x)).StringFixed(2)
	case int64:
		return decimal.NewFromInt(x).StringFixed(2)
	case json.Number:
		return FromString(x.String()).Format()
	case string:
		return FromString(x).Format()
	case map[string]any:
		if s, ok := x["$numberDecimal"].(string); ok {
			return FromString(s).Format()
		}
		return "0.00"
	default:
		return "0.00"
	}
}
