package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseTime = time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

func TestParsePushSingle(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		want Push
	}{
		{
			name: "position two fields",
			msg:  "chassis position 1.5 -2.25;",
			want: &ChassisPosition{X: 1.5, Y: -2.25, Received: parseTime},
		},
		{
			name: "position three fields",
			msg:  "chassis position 1.0 2.5 0.0;",
			want: &ChassisPosition{X: 1, Y: 2.5, Z: ptr(0.0), Received: parseTime},
		},
		{
			name: "attitude",
			msg:  "chassis attitude -0.1 0.0 90.0;",
			want: &ChassisAttitude{Pitch: -0.1, Roll: 0, Yaw: 90, Received: parseTime},
		},
		{
			name: "status",
			msg:  "chassis status 1 0 0 0 0 0 0 0 0 0 1;",
			want: &ChassisStatus{Static: true, HillStatic: true, Received: parseTime},
		},
		{
			name: "gimbal attitude",
			msg:  "gimbal attitude -10 42.5;",
			want: &GimbalAttitude{Pitch: -10, Yaw: 42.5, Received: parseTime},
		},
		{
			name: "filler token accepted",
			msg:  "chassis push attitude 0.5 0.5 0.5;",
			want: &ChassisAttitude{Pitch: 0.5, Roll: 0.5, Yaw: 0.5, Received: parseTime},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePush(tt.msg, parseTime)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestParsePushMultiPayload(t *testing.T) {
	msg := "chassis position 1.0 2.5 0.0;chassis attitude -0.1 0.0 90.0;"
	got, err := ParsePush(msg, parseTime)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, &ChassisPosition{X: 1, Y: 2.5, Z: ptr(0.0), Received: parseTime}, got[0])
	assert.Equal(t, &ChassisAttitude{Pitch: -0.1, Roll: 0, Yaw: 90, Received: parseTime}, got[1])
}

func TestParsePushStickyPrefix(t *testing.T) {
	// later payloads may omit the subsystem tag and inherit the previous one
	msg := "chassis position 1 2; attitude 3 4 5;"
	got, err := ParsePush(msg, parseTime)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.IsType(t, &ChassisPosition{}, got[0])
	assert.Equal(t, &ChassisAttitude{Pitch: 3, Roll: 4, Yaw: 5, Received: parseTime}, got[1])
}

func TestParsePushMalformed(t *testing.T) {
	tests := []struct {
		name string
		msg  string
	}{
		{"empty", ";;;"},
		{"no subsystem", "position 1 2;"},
		{"unknown subsystem", "engine rpm 9000;"},
		{"unknown group", "chassis warp 1 2;"},
		{"non numeric", "chassis position a b;"},
		{"short status", "chassis status 1 0 1;"},
		{"short payload", "chassis;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePush(tt.msg, parseTime)
			assert.Nil(t, got)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestParseEvent(t *testing.T) {
	got, err := ParseEvent("armor hit 2 1;", parseTime)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, &ArmorHitEvent{Index: 2, Type: 1, Received: parseTime}, got[0])

	got, err = ParseEvent("sound applause 3;", parseTime)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, &SoundApplauseEvent{Count: 3, Received: parseTime}, got[0])
}

func TestParseEventUnknownKind(t *testing.T) {
	_, err := ParseEvent("sound whistle 1;", parseTime)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "whistle")

	_, err = ParseEvent("armor scratch 1 2;", parseTime)
	assert.ErrorAs(t, err, &perr)
}

func TestPushRoundTrip(t *testing.T) {
	records := []interface {
		Push
		Wire() string
	}{
		&ChassisPosition{X: 1.25, Y: -0.5, Received: parseTime},
		&ChassisPosition{X: 0, Y: 3, Z: ptr(-90.0), Received: parseTime},
		&ChassisAttitude{Pitch: 1, Roll: -2, Yaw: 179.5, Received: parseTime},
		&ChassisStatus{PickUp: true, ImpactZ: true, Received: parseTime},
		&GimbalAttitude{Pitch: -20, Yaw: 130, Received: parseTime},
	}

	for _, rec := range records {
		got, err := ParsePush(rec.Wire()+";", parseTime)
		require.NoError(t, err, rec.Wire())
		require.Len(t, got, 1)
		assert.Equal(t, rec, got[0])
	}
}

func TestEventRoundTrip(t *testing.T) {
	records := []interface {
		Event
		Wire() string
	}{
		&ArmorHitEvent{Index: 4, Type: 1, Received: parseTime},
		&SoundApplauseEvent{Count: 2, Received: parseTime},
	}

	for _, rec := range records {
		got, err := ParseEvent(rec.Wire()+";", parseTime)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, rec, got[0])
	}
}

func ptr(f float64) *float64 { return &f }
