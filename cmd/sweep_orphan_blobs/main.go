package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/taskmaster-backend/internal/app"
	"github.com/yungbote/taskmaster-backend/internal/services"
)

func main() {
	var (
		dryRun      bool
		prefix      string
		concurrency int
		grace       time.Duration
		metrics     bool
	)
	flag.BoolVar(&dryRun, "dry-run", true, "report orphaned blobs without deleting them")
	flag.StringVar(&prefix, "prefix", "", "only consider keys under this prefix (e.g. a project id)")
	flag.IntVar(&concurrency, "concurrency", 4, "parallel deletes")
	flag.DurationVar(&grace, "grace", 30*time.Second, "re-check candidates after this delay before deleting")
	flag.BoolVar(&metrics, "metrics", false, "print sweep metrics in Prometheus text format")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewMaintenance(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	res, err := application.Services.OrphanSweep.Sweep(ctx, services.SweepOptions{
		Prefix:      prefix,
		DryRun:      dryRun,
		Concurrency: concurrency,
		Grace:       grace,
	})
	if err != nil {
		fmt.Printf("sweep: %v\n", err)
		application.Close()
		os.Exit(1)
	}
	application.Metrics.ObserveSweep(res.Deleted, res.Failed)

	for _, key := range res.Orphans {
		fmt.Println(key)
	}
	fmt.Printf("scanned=%d orphans=%d audited=%d deleted=%d failed=%d dry_run=%v\n",
		res.Scanned, len(res.Orphans), res.Audited, res.Deleted, res.Failed, dryRun)
	if metrics && application.Metrics != nil {
		_ = application.Metrics.WritePrometheus(os.Stdout)
	}
	if res.Failed > 0 {
		application.Close()
		os.Exit(2)
	}
}
