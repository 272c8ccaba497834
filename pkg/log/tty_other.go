//go:build !linux && !darwin

package log

import "io"

// IsTerminal always reports false on platforms without a termios probe.
func IsTerminal(w io.Writer) bool {
	return false
}
