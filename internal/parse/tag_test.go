package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVehicleTag(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "already normalized", raw: "KA01AB1234", want: "KA01AB1234"},
		{name: "lowercase with spaces", raw: "ka 01 ab 1234", want: "KA01AB1234"},
		{name: "dashes and dots", raw: "ka-01.ab-1234", want: "KA01AB1234"},
		{name: "surrounding whitespace", raw: "  KA01AB1234  ", want: "KA01AB1234"},
		{name: "underscores", raw: "MH_12_XY_9999", want: "MH12XY9999"},
		{name: "empty stays empty", raw: "", want: ""},
		{name: "whitespace only stays empty", raw: "   ", want: ""},
		{name: "too short", raw: "A", wantErr: true},
		{name: "too long", raw: "ABCDEFGH123456789", wantErr: true},
		{name: "rejects other symbols", raw: "KA01/AB/1234", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := VehicleTag(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
