package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatArg renders a single command argument as its wire token.
// Booleans become on/off; floats use locale-independent '.' decimals with
// the shortest exact representation.
func FormatArg(arg any) string {
	switch v := arg.(type) {
	case string:
		return v
	case bool:
		if v {
			return SwitchOn
		}
		return SwitchOff
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// EncodeCommand composes a full request line from its tokens, including the
// trailing terminator.
func EncodeCommand(args ...any) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(FormatArg(arg))
	}
	b.WriteByte(Terminator)
	return b.String()
}

// TrimResponse strips the terminator and the stray trailing space the robot
// sometimes appends.
func TrimResponse(raw string) string {
	return strings.Trim(raw, " ;")
}
