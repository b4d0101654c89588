package status

import "sync/atomic"

// MaxStringLen bounds stored strings so panel rows stay short
const MaxStringLen = 48

// AtomicString is a string value safe for concurrent load/store; the zero value is ""
type AtomicString struct {
	ptr atomic.Pointer[string]
}

// Store sets the value, truncated to MaxStringLen bytes on a rune boundary
func (s *AtomicString) Store(val string) {
	if len(val) > MaxStringLen {
		cut := MaxStringLen
		for cut > 0 && !runeStart(val[cut]) {
			cut--
		}
		val = val[:cut]
	}
	s.ptr.Store(&val)
}

func (s *AtomicString) Load() string {
	if p := s.ptr.Load(); p != nil {
		return *p
	}
	return ""
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}
