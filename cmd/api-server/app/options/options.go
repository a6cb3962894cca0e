package options

import (
	"errors"
	"time"

	"github.com/akamensky/argparse"

	applog "mlbench-api-server/internal/logger"
)

type Options struct {
	LogFile           *string
	CertFile          *string
	KeyFile           *string
	Mode              *string
	Port              *int
	JWTSecret         *string
	JobTimeout        *string
	ReconcileInterval *string
	Kubeconfig        *string
	Namespace         *string
	InCluster         *bool

	jobTimeout        time.Duration
	reconcileInterval time.Duration
	parser            *argparse.Parser
}

// NewOptions parses args, os.Args in production. The options are returned
// even on error so Usage can be printed.
func NewOptions(args []string) (*Options, error) {
	option := &Options{}

	parser := argparse.NewParser("mlbench-api-server", "Argument Parser for api-server configurations")
	option.parser = parser

	option.LogFile = parser.String("l", "log-file", &argparse.Options{
		Help:    "log-file name",
		Default: "/var/log/app.log",
	})
	option.CertFile = parser.String("", "tls-cert-file", &argparse.Options{
		Help: "CertFile containing the defaultx509 Certificate for HTTPS. (CA cert)",
	})
	option.KeyFile = parser.String("", "tls-private-key-file", &argparse.Options{
		Help: "Private key file containing the default x509 private key matching --tls-cert-file",
	})
	option.Port = parser.Int("p", "port", &argparse.Options{
		Help:    "The port used by api-server",
		Default: 8000,
	})
	option.Mode = parser.Selector("m", "mode", []string{applog.ModeRelease, applog.ModeDevelopment, applog.ModeDebug}, &argparse.Options{
		Help:    "Choose release/development/debug mode, debug also logs at debug level and serves pprof",
		Default: applog.ModeDebug,
	})
	option.JWTSecret = parser.String("", "jwt-secret", &argparse.Options{
		Help:    "HS256 secret guarding run mutations, empty disables the check",
		Default: "",
	})
	option.JobTimeout = parser.String("", "job-timeout", &argparse.Options{
		Help:    "Timeout for job backend calls",
		Default: "5s",
	})
	option.ReconcileInterval = parser.String("", "reconcile-interval", &argparse.Options{
		Help:    "How often the active run is checked for job completion",
		Default: "30s",
	})
	option.Kubeconfig = parser.String("", "kubeconfig", &argparse.Options{
		Help: "Path to a kubeconfig, used when not running in a cluster",
	})
	option.Namespace = parser.String("n", "namespace", &argparse.Options{
		Help:    "Namespace of the worker pods",
		Default: "default",
	})
	option.InCluster = parser.Flag("", "in-cluster", &argparse.Options{
		Help: "Use the service account of the pod to reach the cluster",
	})

	if err := parser.Parse(args); err != nil {
		return option, err
	}

	if err := option.Validate(); err != nil {
		return option, err
	}
	return option, nil
}

func (o *Options) Validate() error {
	if (*o.CertFile == "") != (*o.KeyFile == "") {
		return errors.New("certificate/private key both must be present or neither must be present")
	}

	var err error
	if o.jobTimeout, err = time.ParseDuration(*o.JobTimeout); err != nil || o.jobTimeout <= 0 {
		return errors.New("job-timeout must be a positive duration such as 5s")
	}
	if o.reconcileInterval, err = time.ParseDuration(*o.ReconcileInterval); err != nil || o.reconcileInterval < time.Second {
		return errors.New("reconcile-interval must be a duration of at least 1s")
	}
	return nil
}

func (o *Options) JobTimeoutDuration() time.Duration {
	return o.jobTimeout
}

func (o *Options) ReconcileIntervalDuration() time.Duration {
	return o.reconcileInterval
}

// UseCluster reports whether a kubernetes client can be built.
func (o *Options) UseCluster() bool {
	return *o.InCluster || *o.Kubeconfig != ""
}

func (o *Options) Usage(err error) string {
	return o.parser.Usage(err)
}
