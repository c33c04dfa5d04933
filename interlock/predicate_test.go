package interlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPermitMatchesExpr is the predicate law from SPEC_FULL.md §8: for all
// 16 combinations of the four bits, the truth table and the equivalent
// boolean expression must agree.
func TestPermitMatchesExpr(t *testing.T) {
	for i := 0; i < 16; i++ {
		b := Bits{
			AllowedWhenLocked: i&0b1000 != 0,
			NeedsFirmware:     i&0b0100 != 0,
			OwnsOrUnowned:     i&0b0010 != 0,
			Locked:            i&0b0001 != 0,
		}
		assert.Equalf(t, Expr(b), Permit(b), "row %04b", i)
	}
}

func TestPermitTableRows(t *testing.T) {
	cases := []struct {
		bits Bits
		want bool
	}{
		{Bits{false, false, false, false}, true},
		{Bits{false, false, false, true}, false},
		{Bits{false, false, true, false}, true},
		{Bits{false, false, true, true}, false},
		{Bits{false, true, false, false}, false},
		{Bits{false, true, false, true}, false},
		{Bits{false, true, true, false}, true},
		{Bits{false, true, true, true}, false},
		{Bits{true, false, false, false}, true},
		{Bits{true, false, false, true}, true},
		{Bits{true, false, true, false}, true},
		{Bits{true, false, true, true}, true},
		{Bits{true, true, false, false}, false},
		{Bits{true, true, false, true}, false},
		{Bits{true, true, true, false}, true},
		{Bits{true, true, true, true}, true},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, Permit(c.bits), "%+v", c.bits)
	}
}
