package terminal

import (
	"time"
	"unicode/utf8"
)

// escapeTimeout is the duration to wait after ESC to distinguish
// standalone ESC from escape sequence start
const escapeTimeout = 50 * time.Millisecond

// decoder turns the raw stdin byte stream into events
// Incomplete sequences stay buffered until more bytes arrive or flushEscape resolves them.
// Not safe for concurrent use; the owning driver serializes access
type decoder struct {
	// Persistent buffer for stream assembly, keeps partial UTF-8 and escape sequences across reads
	buf    []byte
	events []Event
}

func newDecoder() *decoder {
	return &decoder{
		buf:    make([]byte, 0, 256),
		events: make([]Event, 0, 16),
	}
}

// feed appends data and decodes every complete sequence
func (d *decoder) feed(data []byte) {
	d.buf = append(d.buf, data...)
	consumed := d.parse(d.buf)
	d.compact(consumed)
}

// partial reports buffered bytes that do not yet form an event
func (d *decoder) partial() bool {
	return len(d.buf) > 0
}

// pending returns the number of decoded events not yet taken
func (d *decoder) pending() int {
	return len(d.events)
}

// next pops the oldest decoded event
func (d *decoder) next() (Event, bool) {
	if len(d.events) == 0 {
		return Event{}, false
	}
	ev := d.events[0]
	d.events = d.events[1:]
	if len(d.events) == 0 {
		d.events = d.events[:0:cap(d.events)]
	}
	return ev, true
}

// push queues an externally produced event (resize) behind decoded input
func (d *decoder) push(ev Event) {
	d.events = append(d.events, ev)
}

// flushEscape resolves a stalled escape prefix after escapeTimeout: the ESC is
// reported as a standalone key and the remaining bytes are decoded as plain input
func (d *decoder) flushEscape() {
	if len(d.buf) == 0 || d.buf[0] != 0x1b {
		return
	}
	d.emit(Event{Type: EventKey, Key: KeyEscape})
	d.compact(1)
	if len(d.buf) > 0 {
		d.compact(d.parse(d.buf))
	}
}

func (d *decoder) compact(consumed int) {
	if consumed <= 0 {
		return
	}
	if consumed >= len(d.buf) {
		d.buf = d.buf[:0]
		return
	}
	n := copy(d.buf, d.buf[consumed:])
	d.buf = d.buf[:n]
}

func (d *decoder) emit(ev Event) {
	d.events = append(d.events, ev)
}

// parse decodes raw bytes into events and returns bytes consumed (stops on incomplete sequence)
func (d *decoder) parse(data []byte) int {
	i := 0
	n := len(data)

	for i < n {
		b := data[i]

		switch {
		case b >= 0x20 && b < 0x7f:
			// Fast path: printable ASCII
			d.emit(Event{Type: EventKey, Key: KeyRune, Rune: rune(b)})
			i++

		case b == 0x1b:
			// Need at least 2 bytes to determine sequence type
			if i+1 >= n {
				return i
			}
			consumed, ev := d.parseEscape(data[i:])
			if consumed == 0 {
				return i
			}
			// Unknown but well-formed sequences are swallowed
			if ev.Type != EventKey || ev.Key != KeyNone {
				d.emit(ev)
			}
			i += consumed

		case b < 0x20:
			d.emit(parseControl(b))
			i++

		case b == 0x7f:
			d.emit(Event{Type: EventKey, Key: KeyBackspace})
			i++

		default:
			// UTF-8 multibyte
			if !utf8.FullRune(data[i:]) {
				return i
			}
			r, size := utf8.DecodeRune(data[i:])
			if r == utf8.RuneError && size == 1 {
				// Invalid start byte, skip
				i++
				continue
			}
			d.emit(Event{Type: EventKey, Key: KeyRune, Rune: r})
			i += size
		}
	}
	return i
}

// parseEscape attempts to parse an escape sequence, returns 0 on incomplete
func (d *decoder) parseEscape(data []byte) (int, Event) {
	if len(data) < 2 {
		return 0, Event{}
	}

	switch c := data[1]; {
	case c == 0x1b:
		// ESC ESC -> Alt+Escape
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}
	case c == '[':
		return d.parseCSI(data)
	case c == 'O':
		return d.parseSS3(data)
	case c < 0x20:
		ev := parseControl(c)
		ev.Modifiers |= ModAlt
		return 2, ev
	case c < 0x7f:
		return 2, Event{Type: EventKey, Key: KeyRune, Rune: rune(c), Modifiers: ModAlt}
	case c == 0x7f:
		return 2, Event{Type: EventKey, Key: KeyBackspace, Modifiers: ModAlt}
	}

	// ESC followed by a UTF-8 lead byte: Alt is not applied to multibyte input
	return 1, Event{Type: EventKey, Key: KeyEscape}
}

// maxCSILen bounds the scan for a CSI terminator
const maxCSILen = 16

// parseCSI parses CSI sequence without allocation
func (d *decoder) parseCSI(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}

	// SGR mouse: ESC [ < Btn ; X ; Y M/m
	if data[2] == '<' {
		return parseSGRMouse(data)
	}

	// Linux console F1-F5: ESC [ [ A..E
	if data[2] == '[' {
		if len(data) < 4 {
			return 0, Event{}
		}
		key, mod, _ := lookupCSI(data[2:4])
		return 4, Event{Type: EventKey, Key: key, Modifiers: mod}
	}

	limit := len(data)
	if limit > maxCSILen {
		limit = maxCSILen
	}

	// Parameter and intermediate bytes are 0x20-0x3f, the final byte is 0x40-0x7e
	end := 2
	for ; end < limit; end++ {
		b := data[end]
		if b >= 0x40 && b <= 0x7e {
			break
		}
		if b < 0x20 || b > 0x7e {
			// Control byte inside sequence: malformed, drop the introducer
			return 2, Event{Type: EventKey, Key: KeyNone}
		}
	}
	if end >= limit {
		if limit == maxCSILen {
			// Overlong, swallow what was scanned
			return limit, Event{Type: EventKey, Key: KeyNone}
		}
		return 0, Event{}
	}

	end++ // include terminator
	if key, mod, ok := lookupCSI(data[2:end]); ok {
		return end, Event{Type: EventKey, Key: key, Modifiers: mod}
	}
	return end, Event{Type: EventKey, Key: KeyNone}
}

// parseSS3 parses SS3 sequence, returns length even for unknown sequences
func (d *decoder) parseSS3(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}
	if key, mod, ok := lookupSS3(data[2:3]); ok {
		return 3, Event{Type: EventKey, Key: key, Modifiers: mod}
	}
	return 3, Event{Type: EventKey, Key: KeyNone}
}

// parseControl maps C0 control bytes to keys
func parseControl(b byte) Event {
	switch b {
	case 0x00: // Ctrl+Space or Ctrl+@
		return Event{Type: EventKey, Key: KeyCtrlSpace}
	case 0x08: // Ctrl+H or Backspace
		return Event{Type: EventKey, Key: KeyBackspace}
	case 0x09:
		return Event{Type: EventKey, Key: KeyTab}
	case 0x0a, 0x0d: // LF, CR
		return Event{Type: EventKey, Key: KeyEnter}
	case 0x1b:
		return Event{Type: EventKey, Key: KeyEscape}
	case 0x1c:
		return Event{Type: EventKey, Key: KeyCtrlBackslash}
	case 0x1d:
		return Event{Type: EventKey, Key: KeyCtrlBracketRight}
	case 0x1e:
		return Event{Type: EventKey, Key: KeyCtrlCaret}
	case 0x1f:
		return Event{Type: EventKey, Key: KeyCtrlUnderscore}
	}
	if b >= 0x01 && b <= 0x1a {
		return Event{Type: EventKey, Key: KeyCtrlA + Key(b-0x01)}
	}
	return Event{Type: EventKey, Key: KeyNone}
}

// parseSGRMouse parses ESC [ < Btn ; X ; Y (M|m)
func parseSGRMouse(data []byte) (int, Event) {
	end := 3
	for end < len(data) && end < 32 {
		if data[end] == 'M' || data[end] == 'm' {
			break
		}
		end++
	}
	if end >= 32 {
		return end, Event{Type: EventKey, Key: KeyNone}
	}
	if end >= len(data) {
		return 0, Event{}
	}

	btn, x, y, ok := parseSGRParams(data[3:end])
	if !ok {
		return end + 1, Event{Type: EventKey, Key: KeyNone}
	}

	ev := Event{Type: EventMouse, MouseX: x - 1, MouseY: y - 1}

	// Bits 0-1: button (0=left, 1=middle, 2=right, 3=release)
	// Bit 5 (32): motion, bit 6 (64): wheel
	buttonID := btn & 0x03
	isMotion := btn&32 != 0
	isScroll := btn&64 != 0

	if isScroll {
		if buttonID == 0 {
			ev.MouseBtn = MouseBtnWheelUp
		} else {
			ev.MouseBtn = MouseBtnWheelDown
		}
		ev.MouseAction = MouseActionPress
	} else {
		switch buttonID {
		case 0:
			ev.MouseBtn = MouseBtnLeft
		case 1:
			ev.MouseBtn = MouseBtnMiddle
		case 2:
			ev.MouseBtn = MouseBtnRight
		default:
			ev.MouseBtn = MouseBtnNone
		}

		switch {
		case data[end] == 'm':
			ev.MouseAction = MouseActionRelease
		case isMotion && ev.MouseBtn != MouseBtnNone:
			ev.MouseAction = MouseActionDrag
		case isMotion:
			ev.MouseAction = MouseActionMove
		default:
			ev.MouseAction = MouseActionPress
		}
	}

	if btn&4 != 0 {
		ev.Modifiers |= ModShift
	}
	if btn&8 != 0 {
		ev.Modifiers |= ModAlt
	}
	if btn&16 != 0 {
		ev.Modifiers |= ModCtrl
	}

	return end + 1, ev
}

// parseSGRParams extracts btn, x, y from "Btn;X;Y"
func parseSGRParams(data []byte) (btn, x, y int, ok bool) {
	var vals [3]int
	field := 0
	digits := 0

	for _, b := range data {
		switch {
		case b == ';':
			if digits == 0 || field == 2 {
				return 0, 0, 0, false
			}
			field++
			digits = 0
		case b >= '0' && b <= '9':
			vals[field] = vals[field]*10 + int(b-'0')
			digits++
			if vals[field] > 9999 {
				return 0, 0, 0, false
			}
		default:
			return 0, 0, 0, false
		}
	}

	if field != 2 || digits == 0 {
		return 0, 0, 0, false
	}
	return vals[0], vals[1], vals[2], true
}
