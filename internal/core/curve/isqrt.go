package curve

import "math/big"

// isqrt returns the integer floor square root of n using Babylonian
// iteration seeded at n/2+1. The iteration strictly decreases until it
// crosses the root, so it terminates in O(log n) steps and is
// deterministic for identical inputs. Inputs of 1..3 map to 1; zero and
// negative inputs map to 0.
func isqrt(n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return new(big.Int)
	}
	if n.Cmp(big.NewInt(3)) <= 0 {
		return big.NewInt(1)
	}

	z := new(big.Int).Set(n)
	x := new(big.Int).Rsh(n, 1)
	x.Add(x, big.NewInt(1))

	for x.Cmp(z) < 0 {
		z.Set(x)
		// x = (n/x + x) / 2
		t := new(big.Int).Div(n, x)
		t.Add(t, x)
		x = t.Rsh(t, 1)
	}

	return z
}
