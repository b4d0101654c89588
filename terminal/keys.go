package terminal

import (
	"strconv"
	"strings"
)

// Key represents a parsed input key
type Key uint16

// Key constants
const (
	KeyNone Key = iota
	KeyRune     // Printable character (check Event.Rune)

	// Control keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBacktab // Shift+Tab
	KeyBackspace
	KeyDelete

	// Navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12

	// Ctrl+letter, contiguous so KeyCtrlA+n maps byte 0x01+n
	KeyCtrlA
	KeyCtrlB
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlF
	KeyCtrlG
	KeyCtrlH
	KeyCtrlI
	KeyCtrlJ
	KeyCtrlK
	KeyCtrlL
	KeyCtrlM
	KeyCtrlN
	KeyCtrlO
	KeyCtrlP
	KeyCtrlQ
	KeyCtrlR
	KeyCtrlS
	KeyCtrlT
	KeyCtrlU
	KeyCtrlV
	KeyCtrlW
	KeyCtrlX
	KeyCtrlY
	KeyCtrlZ

	// Ctrl+special
	KeyCtrlSpace
	KeyCtrlBackslash
	KeyCtrlBracketRight
	KeyCtrlCaret
	KeyCtrlUnderscore

	// KeyExtended is a key the driver recognized but Key does not name;
	// Event.Code carries the driver's own key code
	KeyExtended
)

// Modifier flags
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << 0
	ModAlt   Modifier = 1 << 1
	ModCtrl  Modifier = 1 << 2
)

var keyNames = map[Key]string{
	KeyRune:      "rune",
	KeyEscape:    "escape",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBacktab:   "backtab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",

	KeyUp:       "up",
	KeyDown:     "down",
	KeyLeft:     "left",
	KeyRight:    "right",
	KeyHome:     "home",
	KeyEnd:      "end",
	KeyPageUp:   "page_up",
	KeyPageDown: "page_down",
	KeyInsert:   "insert",

	KeyCtrlSpace:        "ctrl_space",
	KeyCtrlBackslash:    "ctrl_backslash",
	KeyCtrlBracketRight: "ctrl_bracket_right",
	KeyCtrlCaret:        "ctrl_caret",
	KeyCtrlUnderscore:   "ctrl_underscore",
	KeyExtended:         "extended",
}

func init() {
	for i := Key(0); i < 12; i++ {
		keyNames[KeyF1+i] = "f" + strconv.Itoa(int(i)+1)
	}
	for i := Key(0); i < 26; i++ {
		keyNames[KeyCtrlA+i] = "ctrl_" + string(rune('a'+i))
	}
}

// String returns the canonical lower-case key name, "none" for KeyNone
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "none"
}

// String renders modifiers as "shift+alt+ctrl" order, empty for ModNone
func (m Modifier) String() string {
	var parts []string
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	return strings.Join(parts, "+")
}
