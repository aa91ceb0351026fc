// Package die provides precondition assertions that abort the process
// instead of returning an error, mirroring tlx's die.hpp: programmer
// errors (an absent key addressed with a "must exist" operation, an
// out-of-range radix heap push, an oversized loser tree) are not
// recoverable in-band conditions and are not worth an error return on
// every call in a hot path.
package die

import "fmt"

// Unless panics with msg if cond is false. Mirrors tlx's die_unless.
func Unless(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("die: "+format, args...))
	}
}

// If panics with msg if cond is true. Mirrors tlx's die_if.
func If(cond bool, format string, args ...any) {
	if cond {
		panic(fmt.Sprintf("die: "+format, args...))
	}
}
