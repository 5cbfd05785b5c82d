package domain

import "runtime"

// Zero overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	clear(b)
	runtime.KeepAlive(b)
}
