package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a telegram the parsers could not decode. Listeners log
// and drop these; they never reach downstream queues.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s", e.Line, e.Reason)
}

func parseErrf(line, format string, args ...any) error {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// Push subsystem tags.
const (
	PushChassis = "chassis"
	PushGimbal  = "gimbal"
)

// Event subsystem tags.
const (
	EventArmor = "armor"
	EventSound = "sound"
)

// ParsePush decodes one push datagram into typed records, stamping each with
// the receive timestamp. A datagram may carry several ';'-separated payloads;
// a payload without a leading subsystem tag inherits the tag of the previous
// payload. The literal "push" filler token between tag and group is accepted
// and skipped.
func ParsePush(msg string, received time.Time) ([]Push, error) {
	payloads := splitPayloads(msg)
	if len(payloads) == 0 {
		return nil, parseErrf(msg, "empty telegram")
	}

	var parsed []Push
	subsystem := ""
	for i, payload := range payloads {
		words := strings.Fields(payload)
		if len(words) < 2 {
			return nil, parseErrf(msg, "short payload at index %d", i)
		}
		prefixed := words[0] == PushChassis || words[0] == PushGimbal
		if prefixed {
			subsystem = words[0]
		}
		if subsystem == "" {
			return nil, parseErrf(msg, "no subsystem tag for payload at index %d", i)
		}

		group, fields := splitGroup(words, prefixed, "push")
		var (
			rec Push
			err error
		)
		switch subsystem {
		case PushChassis:
			rec, err = parseChassisPush(msg, group, fields, received)
		case PushGimbal:
			rec, err = parseGimbalPush(msg, group, fields, received)
		}
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, rec)
	}
	return parsed, nil
}

// ParseEvent decodes one event datagram into typed records. Framing matches
// ParsePush with armor/sound subsystem tags and the "event" filler token.
func ParseEvent(msg string, received time.Time) ([]Event, error) {
	payloads := splitPayloads(msg)
	if len(payloads) == 0 {
		return nil, parseErrf(msg, "empty telegram")
	}

	var parsed []Event
	subsystem := ""
	for i, payload := range payloads {
		words := strings.Fields(payload)
		if len(words) < 2 {
			return nil, parseErrf(msg, "short payload at index %d", i)
		}
		prefixed := words[0] == EventArmor || words[0] == EventSound
		if prefixed {
			subsystem = words[0]
		}
		if subsystem == "" {
			return nil, parseErrf(msg, "no subsystem tag for payload at index %d", i)
		}

		kind, fields := splitGroup(words, prefixed, "event")
		var (
			rec Event
			err error
		)
		switch subsystem {
		case EventArmor:
			rec, err = parseArmorEvent(msg, kind, fields, received)
		case EventSound:
			rec, err = parseSoundEvent(msg, kind, fields, received)
		}
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, rec)
	}
	return parsed, nil
}

// splitPayloads splits a telegram into trimmed, non-empty ';' payloads.
func splitPayloads(msg string) []string {
	var out []string
	for _, p := range strings.Split(strings.Trim(msg, " ;\r\n"), ";") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitGroup separates the group token from the value fields. When the
// payload carries a subsystem prefix the group is the following token; the
// filler token (push/event) some firmware inserts in between is skipped.
func splitGroup(words []string, prefixed bool, filler string) (string, []string) {
	i := 0
	if prefixed {
		i = 1
		if i < len(words) && words[i] == filler {
			i = 2
		}
	}
	if i >= len(words) {
		return "", nil
	}
	return words[i], words[i+1:]
}

func parseChassisPush(msg, group string, fields []string, received time.Time) (Push, error) {
	switch group {
	case "position":
		vals, err := parseFloats(fields)
		if err != nil || len(vals) < 2 || len(vals) > 3 {
			return nil, parseErrf(msg, "bad chassis position fields %v", fields)
		}
		pos := &ChassisPosition{X: vals[0], Y: vals[1], Received: received}
		if len(vals) == 3 {
			z := vals[2]
			pos.Z = &z
		}
		return pos, nil
	case "attitude":
		vals, err := parseFloats(fields)
		if err != nil || len(vals) != 3 {
			return nil, parseErrf(msg, "bad chassis attitude fields %v", fields)
		}
		return &ChassisAttitude{Pitch: vals[0], Roll: vals[1], Yaw: vals[2], Received: received}, nil
	case "status":
		bits, err := parseBools(fields)
		if err != nil || len(bits) != 11 {
			return nil, parseErrf(msg, "bad chassis status fields %v", fields)
		}
		return &ChassisStatus{
			Static: bits[0], UpHill: bits[1], DownHill: bits[2], OnSlope: bits[3],
			PickUp: bits[4], Slip: bits[5], ImpactX: bits[6], ImpactY: bits[7],
			ImpactZ: bits[8], RollOver: bits[9], HillStatic: bits[10],
			Received: received,
		}, nil
	default:
		return nil, parseErrf(msg, "unknown chassis push group %q", group)
	}
}

func parseGimbalPush(msg, group string, fields []string, received time.Time) (Push, error) {
	switch group {
	case "attitude":
		vals, err := parseFloats(fields)
		if err != nil || len(vals) != 2 {
			return nil, parseErrf(msg, "bad gimbal attitude fields %v", fields)
		}
		return &GimbalAttitude{Pitch: vals[0], Yaw: vals[1], Received: received}, nil
	default:
		return nil, parseErrf(msg, "unknown gimbal push group %q", group)
	}
}

func parseArmorEvent(msg, kind string, fields []string, received time.Time) (Event, error) {
	switch kind {
	case ArmorHit:
		if len(fields) != 2 {
			return nil, parseErrf(msg, "bad armor hit fields %v", fields)
		}
		index, err1 := strconv.Atoi(fields[0])
		typ, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return nil, parseErrf(msg, "bad armor hit fields %v", fields)
		}
		return &ArmorHitEvent{Index: index, Type: typ, Received: received}, nil
	default:
		return nil, parseErrf(msg, "unknown armor event kind %q", kind)
	}
}

func parseSoundEvent(msg, kind string, fields []string, received time.Time) (Event, error) {
	switch kind {
	case SoundApplause:
		if len(fields) != 1 {
			return nil, parseErrf(msg, "bad sound applause fields %v", fields)
		}
		count, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, parseErrf(msg, "bad sound applause fields %v", fields)
		}
		return &SoundApplauseEvent{Count: count, Received: received}, nil
	default:
		return nil, parseErrf(msg, "unknown sound event kind %q", kind)
	}
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func parseBools(fields []string) ([]bool, error) {
	bits := make([]bool, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		bits = append(bits, v != 0)
	}
	return bits, nil
}
