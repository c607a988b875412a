package assetid

import "testing"

func TestDeriveDeterministic(t *testing.T) {
	a := Derive("alice", "MOON", 1)
	b := Derive("alice", "MOON", 1)
	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if a.IsZero() {
		t.Error("derived ID is zero")
	}
}

func TestDeriveDistinguishesInputs(t *testing.T) {
	base := Derive("alice", "MOON", 1)

	if got := Derive("alice", "MOON", 2); got == base {
		t.Error("salt change did not change ID")
	}
	if got := Derive("alice", "MOOX", 1); got == base {
		t.Error("symbol change did not change ID")
	}
	if got := Derive("bob", "MOON", 1); got == base {
		t.Error("creator change did not change ID")
	}

	// Separator keeps ("ab","c") and ("a","bc") apart.
	if Derive("ab", "c", 0) == Derive("a", "bc", 0) {
		t.Error("field boundary ambiguity")
	}
}

func TestHexRoundTrip(t *testing.T) {
	id := Derive("alice", "MOON", 7)

	back, err := FromHex(id.String())
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if back != id {
		t.Errorf("round trip mismatch: %s vs %s", back, id)
	}

	// 0x prefix accepted
	back, err = FromHex("0x" + id.String())
	if err != nil {
		t.Fatalf("FromHex with prefix: %v", err)
	}
	if back != id {
		t.Errorf("prefixed round trip mismatch")
	}
}

func TestFromHexRejectsBadInput(t *testing.T) {
	if _, err := FromHex("abcd"); err != ErrBadLength {
		t.Errorf("short hex: got err %v, want ErrBadLength", err)
	}
	if _, err := FromHex("zz"); err == nil {
		t.Error("non-hex input accepted")
	}
}
