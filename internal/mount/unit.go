package mount

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// UnitName derives the systemd mount unit name for a path, e.g.
// /mnt/nas-media/volume1/docker -> mnt-nas\x2dmedia-volume1-docker.mount.
// The transform matches `systemd-escape --path --suffix=mount`.
func UnitName(path string) string {
	return EscapePath(path) + ".mount"
}

// EscapePath applies the systemd path escaping rules: leading and trailing
// slashes are stripped, remaining slashes become dashes, and any byte outside
// [a-zA-Z0-9:_.] is rendered as \xXX.
func EscapePath(path string) string {
	trimmed := strings.Trim(filepath.Clean(path), "/")
	if trimmed == "" {
		return "-"
	}

	var b strings.Builder
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case c == '/':
			b.WriteByte('-')
		case i == 0 && c == '.':
			fmt.Fprintf(&b, `\x%02x`, c)
		case isPlain(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, `\x%02x`, c)
		}
	}
	return b.String()
}

// PathFromUnit inverts UnitName, recovering the mount path from a unit name.
func PathFromUnit(unit string) (string, error) {
	name := strings.TrimSuffix(unit, ".mount")
	if name == "" {
		return "", fmt.Errorf("empty unit name")
	}
	if name == "-" {
		return "/", nil
	}

	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch c {
		case '-':
			b.WriteByte('/')
		case '\\':
			if i+3 >= len(name) || name[i+1] != 'x' {
				return "", fmt.Errorf("invalid escape sequence in unit %q", unit)
			}
			value, err := strconv.ParseUint(name[i+2:i+4], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid escape sequence in unit %q", unit)
			}
			b.WriteByte(byte(value))
			i += 3
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func isPlain(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == ':' || c == '_' || c == '.':
		return true
	}
	return false
}
