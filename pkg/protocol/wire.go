package protocol

import "strings"

// Wire renders the record in its documented telegram form, without the
// trailing terminator. Mock robots and round-trip tests use these.

func (p *ChassisPosition) Wire() string {
	tokens := []string{PushChassis, "position", FormatArg(p.X), FormatArg(p.Y)}
	if p.Z != nil {
		tokens = append(tokens, FormatArg(*p.Z))
	}
	return strings.Join(tokens, " ")
}

func (p *ChassisAttitude) Wire() string {
	return strings.Join([]string{
		PushChassis, "attitude",
		FormatArg(p.Pitch), FormatArg(p.Roll), FormatArg(p.Yaw),
	}, " ")
}

func (p *ChassisStatus) Wire() string {
	tokens := []string{PushChassis, "status"}
	for _, b := range []bool{
		p.Static, p.UpHill, p.DownHill, p.OnSlope, p.PickUp, p.Slip,
		p.ImpactX, p.ImpactY, p.ImpactZ, p.RollOver, p.HillStatic,
	} {
		if b {
			tokens = append(tokens, "1")
		} else {
			tokens = append(tokens, "0")
		}
	}
	return strings.Join(tokens, " ")
}

func (p *GimbalAttitude) Wire() string {
	return strings.Join([]string{
		PushGimbal, "attitude", FormatArg(p.Pitch), FormatArg(p.Yaw),
	}, " ")
}

func (e *ArmorHitEvent) Wire() string {
	return strings.Join([]string{
		EventArmor, ArmorHit, FormatArg(e.Index), FormatArg(e.Type),
	}, " ")
}

func (e *SoundApplauseEvent) Wire() string {
	return strings.Join([]string{
		EventSound, SoundApplause, FormatArg(e.Count),
	}, " ")
}
