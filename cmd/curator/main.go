package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus" // Prometheus metrics.

	"github.com/mintel/elasticsearch-curator/internal/app/curator" // App implementation.
)

func main() {
	app, err := curator.NewApp(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}
	selected, err := app.Parse(os.Args[1:])
	if err != nil {
		app.Errorf("%s, try --help", err)
		os.Exit(curator.ExitUsage)
	}
	os.Exit(app.Main(context.Background(), selected, prometheus.DefaultGatherer))
}
