package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Amount is an unsigned fixed-point quantity with 18 decimal places,
// stored as an integer count of base units. The same representation is
// used for the quote currency (wei) and for asset tokens; both carry
// 18 decimals.
type Amount struct {
	v *big.Int
}

// BaseUnitsPerToken is the scaling factor between whole tokens and base units.
var BaseUnitsPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var (
	ErrNegative      = errors.New("amount: negative value")
	ErrNilValue      = errors.New("amount: nil value")
	ErrUnderflow     = errors.New("amount: subtraction underflow")
	ErrDivByZero     = errors.New("amount: division by zero")
	ErrInvalidString = errors.New("amount: invalid decimal string")
)

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{v: new(big.Int)}
}

// New wraps v as an Amount. The value is copied.
func New(v *big.Int) (Amount, error) {
	if v == nil {
		return Amount{}, ErrNilValue
	}
	if v.Sign() < 0 {
		return Amount{}, ErrNegative
	}
	return Amount{v: new(big.Int).Set(v)}, nil
}

// MustNew is New but panics on error. For constants and tests.
func MustNew(v *big.Int) Amount {
	a, err := New(v)
	if err != nil {
		panic(err)
	}
	return a
}

// FromUint64 returns an Amount of v base units.
func FromUint64(v uint64) Amount {
	return Amount{v: new(big.Int).SetUint64(v)}
}

// FromWhole returns an Amount of n whole tokens (n * 1e18 base units).
func FromWhole(n uint64) Amount {
	v := new(big.Int).SetUint64(n)
	return Amount{v: v.Mul(v, BaseUnitsPerToken)}
}

// Parse parses a base-10 integer string of base units.
func Parse(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidString, s)
	}
	return New(v)
}

// MustParse is Parse but panics on error. For constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseDecimal parses a human-readable decimal of whole units, e.g.
// "0.00001" or "50", into base units. At most 18 fractional digits are
// accepted; configuration files use this form.
func ParseDecimal(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidString)
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if hasFrac && fracPart == "" {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidString, s)
	}
	if len(fracPart) > 18 {
		return Amount{}, fmt.Errorf("%w: %q has more than 18 fractional digits", ErrInvalidString, s)
	}

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok || whole.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidString, s)
	}
	whole.Mul(whole, BaseUnitsPerToken)

	if hasFrac {
		frac, ok := new(big.Int).SetString(fracPart+strings.Repeat("0", 18-len(fracPart)), 10)
		if !ok || frac.Sign() < 0 {
			return Amount{}, fmt.Errorf("%w: %q", ErrInvalidString, s)
		}
		whole.Add(whole, frac)
	}
	return Amount{v: whole}, nil
}

// MustParseDecimal is ParseDecimal but panics on error.
func MustParseDecimal(s string) Amount {
	a, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return a
}

// big returns the wrapped value, treating the zero Amount as 0.
func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// BigInt returns a copy of the value in base units.
func (a Amount) BigInt() *big.Int {
	return new(big.Int).Set(a.big())
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.big(), b.big())}
}

// Sub returns a - b, or ErrUnderflow if b > a.
func (a Amount) Sub(b Amount) (Amount, error) {
	if b.big().Cmp(a.big()) > 0 {
		return Amount{}, ErrUnderflow
	}
	return Amount{v: new(big.Int).Sub(a.big(), b.big())}, nil
}

// MustSub is Sub but panics on underflow. For call sites that have
// already established a >= b.
func (a Amount) MustSub(b Amount) Amount {
	r, err := a.Sub(b)
	if err != nil {
		panic(err)
	}
	return r
}

// Mul returns a * n for a plain integer multiplier.
func (a Amount) Mul(n uint64) Amount {
	return Amount{v: new(big.Int).Mul(a.big(), new(big.Int).SetUint64(n))}
}

// Div returns a / n rounded down, or ErrDivByZero.
func (a Amount) Div(n uint64) (Amount, error) {
	if n == 0 {
		return Amount{}, ErrDivByZero
	}
	return Amount{v: new(big.Int).Div(a.big(), new(big.Int).SetUint64(n))}, nil
}

// MulDiv returns a * num / den rounded down. The intermediate product is
// exact, so no overflow is possible.
func (a Amount) MulDiv(num, den uint64) (Amount, error) {
	if den == 0 {
		return Amount{}, ErrDivByZero
	}
	v := new(big.Int).Mul(a.big(), new(big.Int).SetUint64(num))
	return Amount{v: v.Div(v, new(big.Int).SetUint64(den))}, nil
}

// Cmp returns -1, 0 or +1 comparing a to b.
func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

// LT reports a < b.
func (a Amount) LT(b Amount) bool { return a.Cmp(b) < 0 }

// LTE reports a <= b.
func (a Amount) LTE(b Amount) bool { return a.Cmp(b) <= 0 }

// GT reports a > b.
func (a Amount) GT(b Amount) bool { return a.Cmp(b) > 0 }

// GTE reports a >= b.
func (a Amount) GTE(b Amount) bool { return a.Cmp(b) >= 0 }

// IsZero reports whether a is zero.
func (a Amount) IsZero() bool {
	return a.big().Sign() == 0
}

// IsPositive reports whether a is strictly positive.
func (a Amount) IsPositive() bool {
	return a.big().Sign() > 0
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// WholeTokens returns the number of whole tokens, discarding the
// fractional part.
func (a Amount) WholeTokens() *big.Int {
	return new(big.Int).Div(a.big(), BaseUnitsPerToken)
}

// String renders the amount as a base-10 integer count of base units.
func (a Amount) String() string {
	return a.big().String()
}

// Decimal renders the amount as a human-readable decimal with trailing
// zeros trimmed, e.g. "1.25".
func (a Amount) Decimal() string {
	q, r := new(big.Int).QuoRem(a.big(), BaseUnitsPerToken, new(big.Int))
	if r.Sign() == 0 {
		return q.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%018s", r.String()), "0")
	return q.String() + "." + frac
}

// MarshalText implements encoding.TextMarshaler using the base-unit form.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON renders the amount as a JSON string of base units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a JSON string or bare integer of base units.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	return a.UnmarshalText([]byte(s))
}
