package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatFrame renders a frame for logs: opcode name followed by the raw bytes.
func FormatFrame(f Frame) string {
	p, err := Decode(f)
	if err != nil {
		return fmt.Sprintf("INVALID [% X]", f[:])
	}
	return fmt.Sprintf("%s (0x%02X) payload=[% X]", p.Opcode, byte(p.Opcode), p.Payload[:])
}

// ParseOpcode accepts either a protocol name ("REQ_TEMP", case-insensitive,
// optional "_P_" or "_PE_" prefix) or a numeric value ("0xA3", "163").
func ParseOpcode(s string) (Opcode, error) {
	s = strings.TrimSpace(s)
	name := strings.ToUpper(s)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.TrimPrefix(name, "_P_")
	name = strings.TrimPrefix(name, "_")

	for op, info := range opcodes {
		if info.name == name || info.name == "PE_"+name {
			return op, nil
		}
	}

	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown opcode %q", s)
	}
	return Opcode(v), nil
}
