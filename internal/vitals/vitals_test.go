package vitals

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRaw_Valid(t *testing.T) {
	v, err := ParseRaw(Raw{Temperature: " 37.0", HeartRate: "72", RespRate: "16 ", WBCCount: "8000"})
	require.NoError(t, err)
	assert.Equal(t, Vitals{Temperature: 37.0, HeartRate: 72, RespRate: 16, WBCCount: 8000}, v)
}

func TestParseRaw_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   Raw
		field string
	}{
		{"missing temperature", Raw{HeartRate: "72", RespRate: "16", WBCCount: "8000"}, "temperature"},
		{"non numeric temperature", Raw{Temperature: "hot", HeartRate: "72", RespRate: "16", WBCCount: "8000"}, "temperature"},
		{"fractional heart rate", Raw{Temperature: "37", HeartRate: "72.5", RespRate: "16", WBCCount: "8000"}, "heart_rate"},
		{"zero resp rate", Raw{Temperature: "37", HeartRate: "72", RespRate: "0", WBCCount: "8000"}, "resp_rate"},
		{"negative wbc", Raw{Temperature: "37", HeartRate: "72", RespRate: "16", WBCCount: "-1"}, "wbc_count"},
		{"temperature too low", Raw{Temperature: "29.9", HeartRate: "72", RespRate: "16", WBCCount: "8000"}, "temperature"},
		{"temperature too high", Raw{Temperature: "45.1", HeartRate: "72", RespRate: "16", WBCCount: "8000"}, "temperature"},
		{"heart rate ceiling", Raw{Temperature: "37", HeartRate: "301", RespRate: "16", WBCCount: "8000"}, "heart_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRaw(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidVitals))

			var ive *InvalidVitalsError
			require.True(t, errors.As(err, &ive))
			assert.Equal(t, tt.field, ive.Field)
		})
	}
}

func TestValidate_Bounds(t *testing.T) {
	_, err := Validate(Vitals{Temperature: 30, HeartRate: 1, RespRate: 1, WBCCount: 0})
	require.NoError(t, err)

	_, err = Validate(Vitals{Temperature: 45, HeartRate: MaxHeartRate, RespRate: MaxRespRate, WBCCount: MaxWBCCount})
	require.NoError(t, err)

	_, err = Validate(Vitals{Temperature: math.NaN(), HeartRate: 72, RespRate: 16, WBCCount: 8000})
	require.ErrorIs(t, err, ErrInvalidVitals)

	_, err = Validate(Vitals{Temperature: 37, HeartRate: 72, RespRate: 16, WBCCount: math.Inf(1)})
	require.ErrorIs(t, err, ErrInvalidVitals)
}
