package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbench-api-server/internal/utils"
)

func TestMilliCPU(t *testing.T) {
	tests := []struct {
		cores float64
		want  string
	}{
		{2.0, "2000m"},
		{0.5, "500m"},
		{1.25, "1250m"},
		{0.0004, ""},
		{0, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		got, err := utils.MilliCPU(tt.cores)
		if tt.want == "" {
			assert.Error(t, err, "cores=%v", tt.cores)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My cool run", "My_cool_run"},
		{"../../etc/passwd", "etc_passwd"},
		{"résumé", "resume"},
		{"tab\tand\nnewline", "tab_and_newline"},
		{"a;b:c*d", "abcd"},
		{"...", "fallback"},
		{"", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.SecureFilename(tt.in, "fallback"))
		})
	}
}

func TestParseSince(t *testing.T) {
	got, err := utils.ParseSince("2018-08-14T09:21:44.331823Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 8, 14, 9, 21, 44, 331823000, time.UTC), got)

	got, err = utils.ParseSince("2018-08-14T09:21:44Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 8, 14, 9, 21, 44, 0, time.UTC), got)

	_, err = utils.ParseSince("yesterday")
	assert.Error(t, err)

	assert.Equal(t, "2018-08-14T09:21:44.331823Z", utils.FormatSince(time.Date(2018, 8, 14, 9, 21, 44, 331823000, time.UTC)))
}

func TestTimeParser(t *testing.T) {
	// workers post str(datetime.now()), which carries no zone
	got, err := utils.TimeParser("2018-08-14 09:21:44.331823")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 8, 14, 9, 21, 44, 331823000, time.UTC), got)

	got, err = utils.TimeParser("2018-08-14T11:21:44+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 8, 14, 9, 21, 44, 0, time.UTC), got)

	_, err = utils.TimeParser("not a date")
	assert.Error(t, err)
}
