package terminal

import "strconv"

// seqKey is the decoded meaning of an escape sequence body
type seqKey struct {
	key Key
	mod Modifier
}

// csiMap holds sequence bodies after "ESC [" (e.g. "A", "1;5C", "3;2~")
// ss3Map holds the single byte after "ESC O"
var (
	csiMap = make(map[string]seqKey, 256)
	ss3Map = map[string]seqKey{
		"A": {KeyUp, ModNone},
		"B": {KeyDown, ModNone},
		"C": {KeyRight, ModNone},
		"D": {KeyLeft, ModNone},
		"H": {KeyHome, ModNone},
		"F": {KeyEnd, ModNone},
		"P": {KeyF1, ModNone},
		"Q": {KeyF2, ModNone},
		"R": {KeyF3, ModNone},
		"S": {KeyF4, ModNone},
	}
)

func init() {
	// Final-letter keys: ESC [ X and ESC [ 1 ; m X
	letters := map[byte]Key{
		'A': KeyUp, 'B': KeyDown, 'C': KeyRight, 'D': KeyLeft,
		'H': KeyHome, 'F': KeyEnd,
		'P': KeyF1, 'Q': KeyF2, 'R': KeyF3, 'S': KeyF4,
	}
	for final, key := range letters {
		csiMap[string(final)] = seqKey{key, ModNone}
		for param := 2; param <= 8; param++ {
			csiMap["1;"+strconv.Itoa(param)+string(final)] = seqKey{key, Modifier(param - 1)}
		}
	}

	// Tilde keys: ESC [ n ~ and ESC [ n ; m ~
	tildes := map[int]Key{
		1: KeyHome, 2: KeyInsert, 3: KeyDelete, 4: KeyEnd,
		5: KeyPageUp, 6: KeyPageDown, 7: KeyHome, 8: KeyEnd,
		11: KeyF1, 12: KeyF2, 13: KeyF3, 14: KeyF4, 15: KeyF5,
		17: KeyF6, 18: KeyF7, 19: KeyF8, 20: KeyF9, 21: KeyF10,
		23: KeyF11, 24: KeyF12,
	}
	for n, key := range tildes {
		num := strconv.Itoa(n)
		csiMap[num+"~"] = seqKey{key, ModNone}
		for param := 2; param <= 8; param++ {
			csiMap[num+";"+strconv.Itoa(param)+"~"] = seqKey{key, Modifier(param - 1)}
		}
	}

	// Shift+Tab and linux console function keys
	csiMap["Z"] = seqKey{KeyBacktab, ModShift}
	csiMap["[A"] = seqKey{KeyF1, ModNone}
	csiMap["[B"] = seqKey{KeyF2, ModNone}
	csiMap["[C"] = seqKey{KeyF3, ModNone}
	csiMap["[D"] = seqKey{KeyF4, ModNone}
	csiMap["[E"] = seqKey{KeyF5, ModNone}
}

// lookupCSI resolves a CSI body; the string([]byte) map index does not allocate
func lookupCSI(body []byte) (Key, Modifier, bool) {
	if s, ok := csiMap[string(body)]; ok {
		return s.key, s.mod, true
	}
	return KeyNone, ModNone, false
}

func lookupSS3(body []byte) (Key, Modifier, bool) {
	if s, ok := ss3Map[string(body)]; ok {
		return s.key, s.mod, true
	}
	return KeyNone, ModNone, false
}
