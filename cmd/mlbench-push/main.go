// Command mlbench-push reports one metric sample to the master, the way a
// worker does from inside a benchmark.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"

	"mlbench-api-server/internal/cluster"
	"mlbench-api-server/internal/push"
	"mlbench-api-server/internal/utils"
)

func main() {
	parser := argparse.NewParser("mlbench-push", "Push a metric sample to the mlbench master")
	podName := parser.String("", "pod-name", &argparse.Options{Help: "Owning pod, exclusive with --run-id"})
	runID := parser.String("", "run-id", &argparse.Options{Help: "Owning run, exclusive with --pod-name"})
	name := parser.String("", "name", &argparse.Options{Required: true, Help: "Metric name"})
	value := parser.String("", "value", &argparse.Options{Required: true, Help: "Numeric value"})
	metadata := parser.String("", "metadata", &argparse.Options{Help: "Opaque metadata"})
	cumulative := parser.Flag("", "cumulative", &argparse.Options{Help: "Value is a running total"})
	namespace := parser.String("n", "namespace", &argparse.Options{Default: "default", Help: "Namespace of the master pod"})
	inCluster := parser.Flag("", "in-cluster", &argparse.Options{Help: "Discover the master through the cluster"})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	if (*podName == "") == (*runID == "") {
		fmt.Print(parser.Usage("exactly one of --pod-name and --run-id is required"))
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := push.NewConfig()
	if err != nil {
		logger.Fatal("invalid push configuration", zap.Error(err))
	}

	var source cluster.Source
	if *inCluster {
		clientset, err := cluster.NewClientset("", true)
		if err != nil {
			logger.Fatal("unable to reach cluster", zap.Error(err))
		}
		source = cluster.New(clientset, *namespace)
	}

	client := push.New(*cfg, source, logger)
	accepted := client.Post(push.Payload{
		PodName:    *podName,
		RunID:      *runID,
		Name:       *name,
		Date:       utils.FormatSince(time.Now()),
		Value:      *value,
		Metadata:   *metadata,
		Cumulative: *cumulative,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+time.Second)
	defer cancel()
	if err := client.Close(ctx); err != nil {
		logger.Error("metric not flushed", zap.Error(err))
	}
	if !accepted || client.Disabled() || client.Dropped() > 0 {
		logger.Error("metric was not delivered", zap.String("name", *name))
		cancel()
		os.Exit(1)
	}
}
