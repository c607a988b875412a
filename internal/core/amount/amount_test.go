package amount

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestFromWhole(t *testing.T) {
	tests := []struct {
		name string
		n    uint64
		want string
	}{
		{"zero", 0, "0"},
		{"one token", 1, "1000000000000000000"},
		{"supply cap", 400000, "400000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromWhole(tt.n).String()
			if got != tt.want {
				t.Errorf("FromWhole(%d) = %s, want %s", tt.n, got, tt.want)
			}
		})
	}
}

func TestSubUnderflow(t *testing.T) {
	a := FromUint64(5)
	b := FromUint64(7)

	if _, err := a.Sub(b); err != ErrUnderflow {
		t.Errorf("Sub underflow: got err %v, want ErrUnderflow", err)
	}

	r, err := b.Sub(a)
	if err != nil {
		t.Fatalf("Sub: unexpected error %v", err)
	}
	if r.String() != "2" {
		t.Errorf("Sub = %s, want 2", r)
	}
}

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name     string
		a        uint64
		num, den uint64
		want     string
	}{
		{"exact", 10000, 500, 10000, "500"},
		{"floors", 3, 1, 2, "1"},
		{"fee bps", 1000000, 100, 10000, "10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromUint64(tt.a).MulDiv(tt.num, tt.den)
			if err != nil {
				t.Fatalf("MulDiv: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("MulDiv(%d, %d, %d) = %s, want %s", tt.a, tt.num, tt.den, got, tt.want)
			}
		})
	}

	if _, err := FromUint64(1).MulDiv(1, 0); err != ErrDivByZero {
		t.Errorf("MulDiv by zero: got err %v, want ErrDivByZero", err)
	}
}

func TestNewRejectsNegative(t *testing.T) {
	if _, err := New(big.NewInt(-1)); err != ErrNegative {
		t.Errorf("New(-1): got err %v, want ErrNegative", err)
	}
	if _, err := New(nil); err != ErrNilValue {
		t.Errorf("New(nil): got err %v, want ErrNilValue", err)
	}
}

func TestDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1000000000000000000", "1"},
		{"1250000000000000000", "1.25"},
		{"10000000000000", "0.00001"},
		{"20190000000000000000", "20.19"},
	}

	for _, tt := range tests {
		got := MustParse(tt.in).Decimal()
		if got != tt.want {
			t.Errorf("Decimal(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1", "1000000000000000000"},
		{"1.25", "1250000000000000000"},
		{"0.00001", "10000000000000"},
		{"20.19", "20190000000000000000"},
		{".5", "500000000000000000"},
		{" 50 ", "50000000000000000000"},
	}

	for _, tt := range tests {
		got, err := ParseDecimal(tt.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q): %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "1.", "1.1234567890123456789", "-1", "1.-5", "abc"} {
		if _, err := ParseDecimal(bad); err == nil {
			t.Errorf("ParseDecimal(%q): expected error", bad)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	a := MustParse("123456789000000000000")

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"123456789000000000000"` {
		t.Errorf("Marshal = %s", data)
	}

	var back Amount
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Cmp(a) != 0 {
		t.Errorf("round trip: got %s, want %s", back, a)
	}
}

func TestWholeTokens(t *testing.T) {
	a := MustParse("2500000000000000000") // 2.5 tokens
	if got := a.WholeTokens().Int64(); got != 2 {
		t.Errorf("WholeTokens = %d, want 2", got)
	}
}

func TestMin(t *testing.T) {
	a := FromUint64(3)
	b := FromUint64(9)
	if got := Min(a, b); got.Cmp(a) != 0 {
		t.Errorf("Min = %s, want %s", got, a)
	}
	if got := Min(b, a); got.Cmp(a) != 0 {
		t.Errorf("Min = %s, want %s", got, a)
	}
}
