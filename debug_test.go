package vectormap

import "testing"

func TestSetDebugDoesNotPanic(t *testing.T) {
	SetDebug(true)
	SetDebug(false)
}
