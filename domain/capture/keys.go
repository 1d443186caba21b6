package capture

import (
	"strconv"
	"strings"
)

// Windows virtual-key codes for keys without a printable name.
var namedKeys = map[string]uint8{
	"BACK":     0x08,
	"TAB":      0x09,
	"ENTER":    0x0D,
	"SHIFT":    0x10,
	"CONTROL":  0x11,
	"ALT":      0x12,
	"PAUSE":    0x13,
	"CAPSLOCK": 0x14,
	"ESCAPE":   0x1B,
	"SPACE":    0x20,
	"PAGEUP":   0x21,
	"PAGEDOWN": 0x22,
	"END":      0x23,
	"HOME":     0x24,
	"LEFT":     0x25,
	"UP":       0x26,
	"RIGHT":    0x27,
	"DOWN":     0x28,
	"SNAPSHOT": 0x2C,
	"INSERT":   0x2D,
	"DELETE":   0x2E,
	"LWIN":     0x5B,
	"RWIN":     0x5C,
}

var keyNames = func() map[uint8]string {
	m := make(map[uint8]string, len(namedKeys))
	for name, vk := range namedKeys {
		m[vk] = name
	}
	return m
}()

// ParseKey converts a key token (e.g. "F3", "R", "7", "Space") into a
// virtual-key code. Recognizes F1..F24, letters, digits and the names in
// namedKeys.
func ParseKey(key string) (uint8, bool) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if len(k) == 1 {
		c := k[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return c, true // 'A'..'Z' and '0'..'9' match VK codes
		}
	}
	if len(k) >= 2 && k[0] == 'F' {
		if n, err := strconv.Atoi(k[1:]); err == nil && n >= 1 && n <= 24 {
			return uint8(0x70 + n - 1), true // VK_F1=0x70
		}
	}
	vk, ok := namedKeys[k]
	return vk, ok
}

// KeyName is the inverse of ParseKey. Unknown codes render as hex.
func KeyName(vk uint8) string {
	switch {
	case (vk >= 'A' && vk <= 'Z') || (vk >= '0' && vk <= '9'):
		return string(rune(vk))
	case vk >= 0x70 && vk <= 0x87:
		return "F" + strconv.Itoa(int(vk)-0x70+1)
	}
	if name, ok := keyNames[vk]; ok {
		return name
	}
	return "0x" + strings.ToUpper(strconv.FormatUint(uint64(vk), 16))
}

// String renders the set as "Ctrl+Shift" style text.
func (m ModifierKeys) String() string {
	var parts []string
	if m&ModControl != 0 {
		parts = append(parts, "Ctrl")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if m&ModShift != 0 {
		parts = append(parts, "Shift")
	}
	if m&ModWindows != 0 {
		parts = append(parts, "Win")
	}
	return strings.Join(parts, "+")
}
