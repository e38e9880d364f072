package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/parentrebuild/backend/config"
	"github.com/parentrebuild/backend/internal/app"
	"github.com/parentrebuild/backend/internal/domain"
	"github.com/parentrebuild/backend/internal/infrastructure/jobfile"
	"github.com/parentrebuild/backend/internal/usecase"
)

// Options are the command-line flags of the rebuild command
type Options struct {
	Job          string `long:"job" short:"j" env:"REBUILD_JOB" description:"YAML job file" required:"true"`
	DryRun       bool   `long:"dry-run" description:"Plan and validate without submitting anything"`
	NoParent     bool   `long:"no-parent" description:"Skip the PARENT update phase"`
	NoInventory  bool   `long:"no-inventory" description:"Skip the INVENTORY phase"`
	ConfigDir    string `long:"config-dir" env:"REBUILD_CONFIG_DIR" description:"Directory containing config.yaml"`
	PreviewLimit int    `long:"preview-limit" default:"3" description:"Messages shown per batch in a dry run"`
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	opts, ok := parseOptions(os.Args[1:])
	if !ok {
		return
	}

	if err := run(opts); err != nil {
		log.Printf("Rebuild failed: %v", err)
		os.Exit(1)
	}
}

// parseOptions returns false when help was shown or parsing failed
func parseOptions(args []string) (*Options, bool) {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, false
		}
		os.Exit(2)
	}
	return &opts, true
}

func run(opts *Options) error {
	job, err := jobfile.Load(opts.Job)
	if err != nil {
		return err
	}
	req := applyOverrides(job.Request(), opts)

	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return err
	}
	if !opts.DryRun {
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if opts.DryRun {
		return dryRun(application.Service, req, opts.PreviewLimit)
	}

	report, err := application.Service.Run(ctx, req)
	if report != nil {
		printJSON(report)
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		for _, problem := range validationErr.Problems {
			fmt.Fprintln(os.Stderr, problem)
		}
	}
	return err
}

// applyOverrides applies command-line switches on top of the job file
func applyOverrides(req *domain.RebuildRequest, opts *Options) *domain.RebuildRequest {
	if opts.NoParent {
		includeParent := false
		req.IncludeParent = &includeParent
	}
	if opts.NoInventory {
		req.SkipInventory = true
	}
	return req
}

func dryRun(service *usecase.RebuildService, req *domain.RebuildRequest, limit int) error {
	plan, problems, err := service.Preview(req)
	if err != nil {
		return err
	}

	batches := []*domain.Batch{&plan.Delete, &plan.Create}
	if plan.Parent != nil {
		batches = append(batches, plan.Parent)
	}
	for _, batch := range batches {
		preview, err := usecase.CompactPreview(batch.Messages, limit)
		if err != nil {
			return err
		}
		fmt.Printf("== %s (%d messages)\n%s\n", batch.Label, len(batch.Messages), preview)
	}
	if !plan.SkipInventory {
		fmt.Printf("== INVENTORY (%d SKUs)\n", len(plan.InventorySKUs))
	}

	if len(problems) > 0 {
		for _, problem := range problems {
			fmt.Fprintln(os.Stderr, problem)
		}
		return &domain.ValidationError{Problems: problems}
	}
	log.Printf("[REBUILD] Dry run OK: nothing submitted")
	return nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("Failed to encode report: %v", err)
		return
	}
	fmt.Println(string(out))
}
