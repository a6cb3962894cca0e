package options_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlbench-api-server/cmd/api-server/app/options"
)

func TestNewOptions(t *testing.T) {
	opts, err := options.NewOptions([]string{"api-server"})
	require.NoError(t, err)
	assert.Equal(t, 8000, *opts.Port)
	assert.Equal(t, "debug", *opts.Mode)
	assert.Equal(t, 5*time.Second, opts.JobTimeoutDuration())
	assert.Equal(t, 30*time.Second, opts.ReconcileIntervalDuration())
	assert.False(t, opts.UseCluster())

	opts, err = options.NewOptions([]string{
		"api-server",
		"--port", "9000",
		"--mode", "release",
		"--job-timeout", "2s",
		"--reconcile-interval", "1m",
		"--in-cluster",
		"--namespace", "mlbench",
	})
	require.NoError(t, err)
	assert.Equal(t, 9000, *opts.Port)
	assert.Equal(t, "release", *opts.Mode)
	assert.Equal(t, 2*time.Second, opts.JobTimeoutDuration())
	assert.Equal(t, time.Minute, opts.ReconcileIntervalDuration())
	assert.True(t, opts.UseCluster())
	assert.Equal(t, "mlbench", *opts.Namespace)
}

func TestNewOptions_Invalid(t *testing.T) {
	cases := map[string][]string{
		"cert without key": {"api-server", "--tls-cert-file", "cert.pem"},
		"bad job timeout":  {"api-server", "--job-timeout", "soon"},
		"short reconcile":  {"api-server", "--reconcile-interval", "100ms"},
		"unknown mode":     {"api-server", "--mode", "turbo"},
	}
	for name, args := range cases {
		args := args
		t.Run(name, func(t *testing.T) {
			opts, err := options.NewOptions(args)
			assert.Error(t, err)
			require.NotNil(t, opts)
			assert.NotEmpty(t, opts.Usage(err))
		})
	}
}
