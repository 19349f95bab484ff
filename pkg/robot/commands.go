package robot

import (
	"strconv"
	"strings"
	"time"

	"github.com/robofleet/go-robomaster/pkg/protocol"
)

// Session commands.

// Version queries the robot's SDK version string.
func (c *Commander) Version() (string, error) {
	return c.doQuery("version", "version")
}

// RobotMode sets the motion mode; one of protocol.Modes.
func (c *Commander) RobotMode(mode string) error {
	if !protocol.ValidToken(protocol.Modes, mode) {
		return invalidArgf("mode", "unknown mode %q", mode)
	}
	return c.doOK("robot_mode", "robot", "mode", mode)
}

// GetRobotMode queries the current motion mode.
func (c *Commander) GetRobotMode() (string, error) {
	resp, err := c.doQuery("get_robot_mode", "robot", "mode", "?")
	if err != nil {
		return "", err
	}
	if !protocol.ValidToken(protocol.Modes, resp) {
		return "", &RemoteError{Cmd: "get_robot_mode", Body: resp}
	}
	return resp, nil
}

// Quit tells the robot to leave SDK mode, then closes the session. Most
// programs never call this; Close alone leaves the robot in SDK mode for
// other sessions.
func (c *Commander) Quit() error {
	if err := c.doOK("quit", "quit"); err != nil {
		return err
	}
	return c.Close()
}

// Chassis commands.

// ChassisSpeed sets the chassis velocity. x, y in m/s within ±3.5;
// z in °/s within ±600.
func (c *Commander) ChassisSpeed(x, y, z float64) error {
	if err := checkRange("x", x, -3.5, 3.5); err != nil {
		return err
	}
	if err := checkRange("y", y, -3.5, 3.5); err != nil {
		return err
	}
	if err := checkRange("z", z, -600, 600); err != nil {
		return err
	}
	return c.doOK("chassis_speed", "chassis", "speed", "x", x, "y", y, "z", z)
}

// GetChassisSpeed queries axis and per-wheel speeds.
func (c *Commander) GetChassisSpeed() (*protocol.ChassisSpeed, error) {
	resp, err := c.doQuery("get_chassis_speed", "chassis", "speed", "?")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(resp)
	if len(fields) != 7 {
		return nil, &RemoteError{Cmd: "get_chassis_speed", Body: resp}
	}
	var speed protocol.ChassisSpeed
	ferr := firstErr(
		parseFloat(fields[0], &speed.X),
		parseFloat(fields[1], &speed.Y),
		parseFloat(fields[2], &speed.Z),
		parseInt(fields[3], &speed.W1),
		parseInt(fields[4], &speed.W2),
		parseInt(fields[5], &speed.W3),
		parseInt(fields[6], &speed.W4),
	)
	if ferr != nil {
		return nil, &RemoteError{Cmd: "get_chassis_speed", Body: resp}
	}
	return &speed, nil
}

// ChassisWheel sets the four mecanum wheel speeds in rpm, each within ±1000.
// w1 front-right, w2 front-left, w3 rear-right, w4 rear-left.
func (c *Commander) ChassisWheel(w1, w2, w3, w4 int) error {
	for i, w := range []int{w1, w2, w3, w4} {
		if w < -1000 || w > 1000 {
			return invalidArgf("w"+strconv.Itoa(i+1), "%d is out of range", w)
		}
	}
	return c.doOK("chassis_wheel", "chassis", "wheel", "w1", w1, "w2", w2, "w3", w3, "w4", w4)
}

// ChassisMove moves the chassis to a position relative to its current one.
// x, y in m within ±5; z in ° within ±1800. speedXY (m/s, up to 3.5) and
// speedZ (°/s, up to 600) are optional; pass 0 to use the robot default.
// The robot withholds its response until the motion completes, so this call
// can block for the full travel time - size the session timeout accordingly.
func (c *Commander) ChassisMove(x, y, z, speedXY, speedZ float64) error {
	if err := checkRange("x", x, -5, 5); err != nil {
		return err
	}
	if err := checkRange("y", y, -5, 5); err != nil {
		return err
	}
	if err := checkRange("z", z, -1800, 1800); err != nil {
		return err
	}
	if err := checkOptional("speed_xy", speedXY, 3.5); err != nil {
		return err
	}
	if err := checkOptional("speed_z", speedZ, 600); err != nil {
		return err
	}
	args := []any{"chassis", "move", "x", x, "y", y, "z", z}
	if speedXY != 0 {
		args = append(args, "vxy", speedXY)
	}
	if speedZ != 0 {
		args = append(args, "vz", speedZ)
	}
	return c.doOK("chassis_move", args...)
}

// GetChassisPosition queries the position relative to power-on.
func (c *Commander) GetChassisPosition() (*protocol.ChassisPosition, error) {
	resp, err := c.doQuery("get_chassis_position", "chassis", "position", "?")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(resp)
	if len(fields) != 3 {
		return nil, &RemoteError{Cmd: "get_chassis_position", Body: resp}
	}
	var pos protocol.ChassisPosition
	var z float64
	if ferr := firstErr(
		parseFloat(fields[0], &pos.X),
		parseFloat(fields[1], &pos.Y),
		parseFloat(fields[2], &z),
	); ferr != nil {
		return nil, &RemoteError{Cmd: "get_chassis_position", Body: resp}
	}
	pos.Z = &z
	return &pos, nil
}

// GetChassisAttitude queries the chassis attitude in degrees.
func (c *Commander) GetChassisAttitude() (*protocol.ChassisAttitude, error) {
	resp, err := c.doQuery("get_chassis_attitude", "chassis", "attitude", "?")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(resp)
	if len(fields) != 3 {
		return nil, &RemoteError{Cmd: "get_chassis_attitude", Body: resp}
	}
	var att protocol.ChassisAttitude
	if ferr := firstErr(
		parseFloat(fields[0], &att.Pitch),
		parseFloat(fields[1], &att.Roll),
		parseFloat(fields[2], &att.Yaw),
	); ferr != nil {
		return nil, &RemoteError{Cmd: "get_chassis_attitude", Body: resp}
	}
	return &att, nil
}

// GetChassisStatus queries the chassis state bit set.
func (c *Commander) GetChassisStatus() (*protocol.ChassisStatus, error) {
	resp, err := c.doQuery("get_chassis_status", "chassis", "status", "?")
	if err != nil {
		return nil, err
	}
	records, perr := protocol.ParsePush("chassis status "+resp, time.Now())
	if perr != nil {
		return nil, &RemoteError{Cmd: "get_chassis_status", Body: resp}
	}
	status, ok := records[0].(*protocol.ChassisStatus)
	if !ok {
		return nil, &RemoteError{Cmd: "get_chassis_status", Body: resp}
	}
	return status, nil
}

// ChassisPushOn enables chassis push streams on UDP port 40924. Each
// frequency must be one of protocol.PushFrequencies; pass 0 to leave that
// stream untouched. At least one stream must be enabled.
func (c *Commander) ChassisPushOn(positionFreq, attitudeFreq, statusFreq int) error {
	args := []any{"chassis", "push"}
	for _, f := range []struct {
		name string
		freq int
		attr string
		fkey string
	}{
		{"position_freq", positionFreq, "position", "pfreq"},
		{"attitude_freq", attitudeFreq, "attitude", "afreq"},
		{"status_freq", statusFreq, "status", "sfreq"},
	} {
		if f.freq == 0 {
			continue
		}
		if !protocol.ValidPushFrequency(f.freq) {
			return invalidArgf(f.name, "%d is not a valid frequency", f.freq)
		}
		args = append(args, f.attr, protocol.SwitchOn, f.fkey, f.freq)
	}
	if len(args) == 2 {
		return invalidArgf("freq", "at least one stream must be enabled")
	}
	return c.doOK("chassis_push_on", args...)
}

// ChassisPushOnAll enables every chassis push stream at one frequency.
func (c *Commander) ChassisPushOnAll(freq int) error {
	if !protocol.ValidPushFrequency(freq) {
		return invalidArgf("freq", "%d is not a valid frequency", freq)
	}
	return c.doOK("chassis_push_on", "chassis", "push", "freq", freq)
}

// ChassisPushOff disables the selected chassis push streams.
func (c *Commander) ChassisPushOff(position, attitude, status bool) error {
	args := []any{"chassis", "push"}
	if position {
		args = append(args, "position", protocol.SwitchOff)
	}
	if attitude {
		args = append(args, "attitude", protocol.SwitchOff)
	}
	if status {
		args = append(args, "status", protocol.SwitchOff)
	}
	if len(args) == 2 {
		return invalidArgf("stream", "at least one stream must be selected")
	}
	return c.doOK("chassis_push_off", args...)
}

// ChassisPushOffAll disables every chassis push stream.
func (c *Commander) ChassisPushOffAll() error {
	return c.ChassisPushOff(true, true, true)
}

// Gimbal commands.

// GimbalSpeed sets the gimbal rotation speed; pitch, yaw in °/s within ±450.
func (c *Commander) GimbalSpeed(pitch, yaw float64) error {
	if err := checkRange("pitch", pitch, -450, 450); err != nil {
		return err
	}
	if err := checkRange("yaw", yaw, -450, 450); err != nil {
		return err
	}
	return c.doOK("gimbal_speed", "gimbal", "speed", "p", pitch, "y", yaw)
}

// GimbalMove rotates the gimbal relative to its current attitude. pitch,
// yaw in ° within ±55. Speeds in °/s up to 540 are optional (0 = default).
// Blocks until the motion completes, like ChassisMove.
func (c *Commander) GimbalMove(pitch, yaw, speedPitch, speedYaw float64) error {
	if err := checkRange("pitch", pitch, -55, 55); err != nil {
		return err
	}
	if err := checkRange("yaw", yaw, -55, 55); err != nil {
		return err
	}
	return c.gimbalMove("gimbal_move", "move", pitch, yaw, speedPitch, speedYaw)
}

// GimbalMoveTo rotates the gimbal to an attitude relative to power-on.
// pitch ∈ [-25, 30], yaw ∈ [-250, 250]. Speeds as in GimbalMove.
func (c *Commander) GimbalMoveTo(pitch, yaw, speedPitch, speedYaw float64) error {
	if err := checkRange("pitch", pitch, -25, 30); err != nil {
		return err
	}
	if err := checkRange("yaw", yaw, -250, 250); err != nil {
		return err
	}
	return c.gimbalMove("gimbal_moveto", "moveto", pitch, yaw, speedPitch, speedYaw)
}

func (c *Commander) gimbalMove(name, verb string, pitch, yaw, speedPitch, speedYaw float64) error {
	if err := checkOptional("pitch_speed", speedPitch, 540); err != nil {
		return err
	}
	if err := checkOptional("yaw_speed", speedYaw, 540); err != nil {
		return err
	}
	args := []any{"gimbal", verb, "p", pitch, "y", yaw}
	if speedPitch != 0 {
		args = append(args, "vp", speedPitch)
	}
	if speedYaw != 0 {
		args = append(args, "vy", speedYaw)
	}
	return c.doOK(name, args...)
}

// GimbalSuspend puts the gimbal to sleep.
func (c *Commander) GimbalSuspend() error {
	return c.doOK("gimbal_suspend", "gimbal", "suspend")
}

// GimbalResume wakes the gimbal from suspension.
func (c *Commander) GimbalResume() error {
	return c.doOK("gimbal_resume", "gimbal", "resume")
}

// GimbalRecenter returns the gimbal to its center position.
func (c *Commander) GimbalRecenter() error {
	return c.doOK("gimbal_recenter", "gimbal", "recenter")
}

// GetGimbalAttitude queries the gimbal attitude in degrees.
func (c *Commander) GetGimbalAttitude() (*protocol.GimbalAttitude, error) {
	resp, err := c.doQuery("get_gimbal_attitude", "gimbal", "attitude", "?")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(resp)
	if len(fields) != 2 {
		return nil, &RemoteError{Cmd: "get_gimbal_attitude", Body: resp}
	}
	var att protocol.GimbalAttitude
	if ferr := firstErr(
		parseFloat(fields[0], &att.Pitch),
		parseFloat(fields[1], &att.Yaw),
	); ferr != nil {
		return nil, &RemoteError{Cmd: "get_gimbal_attitude", Body: resp}
	}
	return &att, nil
}

// GimbalPushOn enables the gimbal attitude push stream on UDP port 40924.
func (c *Commander) GimbalPushOn(attitudeFreq int) error {
	if !protocol.ValidPushFrequency(attitudeFreq) {
		return invalidArgf("attitude_freq", "%d is not a valid frequency", attitudeFreq)
	}
	return c.doOK("gimbal_push_on", "gimbal", "push", "attitude", protocol.SwitchOn, "afreq", attitudeFreq)
}

// GimbalPushOff disables the gimbal attitude push stream.
func (c *Commander) GimbalPushOff() error {
	return c.doOK("gimbal_push_off", "gimbal", "push", "attitude", protocol.SwitchOff)
}

// Blaster commands.

// BlasterFire fires the blaster once.
func (c *Commander) BlasterFire() error {
	return c.doOK("blaster_fire", "blaster", "fire")
}

// BlasterBead sets how many beads one trigger fires, 1 to 5.
func (c *Commander) BlasterBead(count int) error {
	if count < 1 || count > 5 {
		return invalidArgf("count", "%d is out of range", count)
	}
	return c.doOK("blaster_bead", "blaster", "bead", count)
}

// Armor, sound and LED commands.

// ArmorSensitivity sets strike detection sensitivity, 1 to 10. Higher is
// more sensitive; the factory default is 5.
func (c *Commander) ArmorSensitivity(value int) error {
	if value < 1 || value > 10 {
		return invalidArgf("value", "%d is out of range", value)
	}
	return c.doOK("armor_sensitivity", "armor", "sensitivity", value)
}

// GetArmorSensitivity queries the strike detection sensitivity.
func (c *Commander) GetArmorSensitivity() (int, error) {
	resp, err := c.doQuery("get_armor_sensitivity", "armor", "sensitivity", "?")
	if err != nil {
		return 0, err
	}
	v, perr := strconv.Atoi(resp)
	if perr != nil {
		return 0, &RemoteError{Cmd: "get_armor_sensitivity", Body: resp}
	}
	return v, nil
}

// ArmorEvent toggles reporting of an armor event on UDP port 40925;
// attr is one of protocol.ArmorEventAttrs.
func (c *Commander) ArmorEvent(attr string, on bool) error {
	if !protocol.ValidToken(protocol.ArmorEventAttrs, attr) {
		return invalidArgf("attr", "unexpected armor event attr %q", attr)
	}
	return c.doOK("armor_event", "armor", "event", attr, on)
}

// SoundEvent toggles reporting of a sound recognition event on UDP port
// 40925; attr is one of protocol.SoundEventAttrs.
func (c *Commander) SoundEvent(attr string, on bool) error {
	if !protocol.ValidToken(protocol.SoundEventAttrs, attr) {
		return invalidArgf("attr", "unexpected sound event attr %q", attr)
	}
	return c.doOK("sound_event", "sound", "event", attr, on)
}

// LEDControl sets an LED effect. comp and effect come from
// protocol.LEDComps and protocol.LEDEffects; r, g, b are 0-255.
// The scrolling effect works only on the gimbal (top) LEDs.
func (c *Commander) LEDControl(comp, effect string, r, g, b int) error {
	if !protocol.ValidToken(protocol.LEDComps, comp) {
		return invalidArgf("comp", "unknown comp %q", comp)
	}
	if !protocol.ValidToken(protocol.LEDEffects, effect) {
		return invalidArgf("effect", "unknown effect %q", effect)
	}
	for _, ch := range []struct {
		name string
		v    int
	}{{"r", r}, {"g", g}, {"b", b}} {
		if ch.v < 0 || ch.v > 255 {
			return invalidArgf(ch.name, "%d is out of range", ch.v)
		}
	}
	if effect == protocol.LEDEffectScrolling &&
		comp != protocol.LEDTopAll && comp != protocol.LEDTopLeft && comp != protocol.LEDTopRight {
		return invalidArgf("effect", "scrolling works only on gimbal LEDs")
	}
	return c.doOK("led_control", "led", "control", "comp", comp, "r", r, "g", g, "b", b, "effect", effect)
}

// IR sensor commands.

// IRSensorMeasure toggles all infrared distance sensors.
func (c *Commander) IRSensorMeasure(on bool) error {
	return c.doOK("ir_sensor_measure", "ir_distance_sensor", "measure", on)
}

// GetIRSensorDistance queries one infrared sensor, id 1 to 4.
// The answer is in millimeters.
func (c *Commander) GetIRSensorDistance(id int) (int, error) {
	if id < 1 || id > 4 {
		return 0, invalidArgf("id", "invalid IR sensor id %d", id)
	}
	resp, err := c.doQuery("get_ir_sensor_distance", "ir_distance_sensor", "distance", id, "?")
	if err != nil {
		return 0, err
	}
	v, perr := strconv.Atoi(resp)
	if perr != nil {
		return 0, &RemoteError{Cmd: "get_ir_sensor_distance", Body: resp}
	}
	return v, nil
}

// Media commands.

// Stream toggles the H.264 video stream on TCP port 40921.
func (c *Commander) Stream(on bool) error {
	return c.doOK("stream", "stream", on)
}

// Audio toggles the audio stream on TCP port 40922.
func (c *Commander) Audio(on bool) error {
	return c.doOK("audio", "audio", on)
}

// Validation and parse helpers.

func checkRange(field string, v, lo, hi float64) error {
	if v < lo || v > hi {
		return invalidArgf(field, "%v is out of range [%v, %v]", v, lo, hi)
	}
	return nil
}

// checkOptional validates an optional speed: 0 means "use robot default",
// anything else must be in (0, hi].
func checkOptional(field string, v, hi float64) error {
	if v == 0 {
		return nil
	}
	if v < 0 || v > hi {
		return invalidArgf(field, "%v is out of range (0, %v]", v, hi)
	}
	return nil
}

func parseFloat(s string, dst *float64) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseInt(s string, dst *int) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
