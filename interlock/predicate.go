// Package interlock implements the admission/gating predicate and the
// firmware/emergency-lock state it consults. The predicate is a pure
// function of four booleans; everything else in this package manages the
// mutable state those booleans are derived from.
package interlock

// Bits are the predicate's four inputs, named for the bit positions in the
// spec's truth table (b3..b0, MSB to LSB).
type Bits struct {
	// AllowedWhenLocked is b3: kind is in ALLOWED_WHEN_LOCKED.
	AllowedWhenLocked bool
	// NeedsFirmware is b2: kind is in NEEDS_FW.
	NeedsFirmware bool
	// OwnsOrUnowned is b1: this process owns the firmware, or no process
	// does. The source historically hard-coded this true when there was no
	// owner and compared refs otherwise; this unifies both branches without
	// changing any outcome in the truth table.
	OwnsOrUnowned bool
	// Locked is b0: the system is in emergency-lock.
	Locked bool
}

// index packs Bits into the truth table's row index, MSB b3 .. LSB b0.
func (b Bits) index() int {
	i := 0
	if b.AllowedWhenLocked {
		i |= 0b1000
	}
	if b.NeedsFirmware {
		i |= 0b0100
	}
	if b.OwnsOrUnowned {
		i |= 0b0010
	}
	if b.Locked {
		i |= 0b0001
	}
	return i
}

// permitTable is the fixed 16-entry admission truth table, indexed by
// Bits.index(). It is retained verbatim, rather than only the equivalent
// boolean expression, because it encodes an operationally verified policy;
// Permit is tested against it for every input.
var permitTable = [16]bool{
	0b0000: true,
	0b0001: false,
	0b0010: true,
	0b0011: false,
	0b0100: false,
	0b0101: false,
	0b0110: true,
	0b0111: false,
	0b1000: true,
	0b1001: true,
	0b1010: true,
	0b1011: true,
	0b1100: false,
	0b1101: false,
	0b1110: true,
	0b1111: true,
}

// Permit decides whether a step may proceed, by the table above.
//
// Readings: (i) if locked and the kind is not allowed-while-locked, deny;
// (ii) if the kind needs firmware and this process neither owns it nor does
// no one, deny; (iii) otherwise permit.
func Permit(b Bits) bool {
	return permitTable[b.index()]
}

// Expr is the equivalent boolean expression:
//
//	permit = (¬b0 ∨ b3) ∧ (¬b2 ∨ b1)
//
// It is exported so tests can assert it agrees with Permit for all 16
// inputs; implementations should never need to choose between them.
func Expr(b Bits) bool {
	return (!b.Locked || b.AllowedWhenLocked) && (!b.NeedsFirmware || b.OwnsOrUnowned)
}
