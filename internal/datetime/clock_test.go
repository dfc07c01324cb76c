package datetime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDisplayTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		input          string
		includeSeconds bool
		want           string
		wantErr        bool
	}{
		{name: "afternoon", input: "17:30:00", want: "5:30 PM"},
		{name: "after midnight", input: "00:15:00", want: "12:15 AM"},
		{name: "noon", input: "12:00:00", want: "12:00 PM"},
		{name: "morning", input: "09:05:00", want: "9:05 AM"},
		{name: "last minute", input: "23:59:59", want: "11:59 PM"},
		{name: "with seconds", input: "17:30:07", includeSeconds: true, want: "5:30:07 PM"},
		{name: "midnight with seconds", input: "00:00:00", includeSeconds: true, want: "12:00:00 AM"},
		{name: "hour rolls over", input: "25:00:00", want: "1:00 AM"},
		{name: "minutes roll over", input: "10:75:00", want: "11:15 AM"},
		{name: "missing seconds", input: "17:30", wantErr: true},
		{name: "not a number", input: "ab:30:00", wantErr: true},
		{name: "display encoded", input: "5:30 PM", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ToDisplayTime(tc.input, tc.includeSeconds)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDisplayTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    WallClockTime
		wantErr bool
	}{
		{input: "5:30 PM", want: WallClockTime{Hour: 17, Minute: 30}},
		{input: "5:30 pm", want: WallClockTime{Hour: 17, Minute: 30}},
		{input: "12:00 PM", want: WallClockTime{Hour: 12}},
		{input: "12:15 AM", want: WallClockTime{Minute: 15}},
		{input: "11:59:59 PM", want: WallClockTime{Hour: 23, Minute: 59, Second: 59}},
		{input: "5:30\u202fPM", want: WallClockTime{Hour: 17, Minute: 30}},
		{input: "5:30\u00a0AM", want: WallClockTime{Hour: 5, Minute: 30}},
		{input: "5:30", wantErr: true},
		{input: "5:30 XM", wantErr: true},
		{input: "5:30 PM extra", wantErr: true},
		{input: "5 PM", wantErr: true},
		{input: "5:3x PM", wantErr: true},
		{input: "1:2:3:4 PM", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDisplayTime(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTo12Hour(t *testing.T) {
	t.Parallel()

	for hour24 := 0; hour24 < 24; hour24++ {
		h, mer := To12Hour(hour24)
		switch {
		case hour24 < 12:
			assert.Equal(t, AM, mer)
		default:
			assert.Equal(t, PM, mer)
		}
		assert.GreaterOrEqual(t, h, 1)
		assert.LessOrEqual(t, h, 12)
	}
}

func TestMeridiemInvolution(t *testing.T) {
	t.Parallel()

	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute++ {
			storage := FormatStorageTime(WallClockTime{Hour: hour, Minute: minute})

			for _, withSeconds := range []bool{false, true} {
				display, err := ToDisplayTime(storage, withSeconds)
				require.NoError(t, err)

				got, err := ParseDisplayTime(display)
				require.NoError(t, err, "display %q", display)
				require.Equal(t, hour, got.Hour, "display %q", display)
				require.Equal(t, minute, got.Minute, "display %q", display)
				require.Equal(t, storage, FormatStorageTime(got))
			}
		}
	}
}

func TestWallClockTimeValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, WallClockTime{Hour: 23, Minute: 59, Second: 59}.Validate())
	assert.NoError(t, WallClockTime{}.Validate())
	for _, bad := range []WallClockTime{{Hour: 24}, {Hour: -1}, {Minute: 60}, {Second: 60}} {
		assert.Error(t, bad.Validate(), fmt.Sprint(bad))
	}
}
