package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mr1hm/go-seismic-sources/internal/compiler"
	"github.com/mr1hm/go-seismic-sources/internal/config"
	"github.com/mr1hm/go-seismic-sources/internal/export"
	"github.com/mr1hm/go-seismic-sources/internal/ingestion"
	"github.com/mr1hm/go-seismic-sources/internal/logging"
	"github.com/mr1hm/go-seismic-sources/internal/models"
	"github.com/mr1hm/go-seismic-sources/internal/repository"
)

type compileFlags struct {
	url       string
	gmtAreas  string
	gmtFaults string
	store     bool
	strategy  string
	workers   int
	failFast  bool
	outcomes  bool
}

func compileCmd(load func() (*config.Config, error)) *cobra.Command {
	var f compileFlags

	cmd := &cobra.Command{
		Use:   "compile [catalog-file]",
		Short: "Compile one catalog and report per-source outcomes",
		Long: `Compile reads a fixed-column catalog from a file, standard input ("-")
or --url and prints a summary of the compiled sources. The sources can be
exported as GMT multi-segment files and stored in the database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strategy") {
				cfg.Compiler.Strategy = f.strategy
			}
			if cmd.Flags().Changed("workers") {
				cfg.Compiler.Workers = f.workers
			}
			if cmd.Flags().Changed("fail-fast") {
				cfg.Compiler.FailFast = f.failFast
			}
			// stdout carries the report
			slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))

			if f.url == "" && len(args) == 0 {
				return fmt.Errorf("a catalog file or --url is required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runCompile(ctx, cmd.OutOrStdout(), cfg, f, args)
		},
	}

	cmd.Flags().StringVar(&f.url, "url", "", "Fetch the catalog from this URL")
	cmd.Flags().StringVar(&f.gmtAreas, "gmt-areas", "", "Write area polygons as a GMT multi-segment file")
	cmd.Flags().StringVar(&f.gmtFaults, "gmt-faults", "", "Write fault traces as a GMT multi-segment file")
	cmd.Flags().BoolVar(&f.store, "store", false, "Store the run in the configured database")
	cmd.Flags().StringVar(&f.strategy, "strategy", "gr", "MFD strategy (gr, empirical)")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "Concurrent source flushes")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "Abort on the first failed source")
	cmd.Flags().BoolVar(&f.outcomes, "outcomes", false, "Print one line per source block")

	return cmd
}

func runCompile(ctx context.Context, out io.Writer, cfg *config.Config, f compileFlags, args []string) error {
	var repo repository.CatalogRepository
	if f.store {
		db, err := repository.NewSQLiteDB(cfg.DB.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		repo = db
	}

	mgr := ingestion.NewManager(cfg, repo, nil)

	var (
		run *models.Run
		res *compiler.Result
		err error
	)
	switch {
	case f.url != "":
		run, res, err = mgr.IngestURL(ctx, f.url)
	case args[0] == "-":
		run, res, err = mgr.Ingest(ctx, "stdin", os.Stdin)
	default:
		file, openErr := os.Open(args[0])
		if openErr != nil {
			return openErr
		}
		defer file.Close()
		run, res, err = mgr.Ingest(ctx, args[0], file)
	}
	if err != nil {
		return err
	}

	if f.gmtAreas != "" {
		if err := writeFile(f.gmtAreas, func(w io.Writer) error {
			return export.WriteAreaGMT(w, res.Catalog.Areas())
		}); err != nil {
			return err
		}
	}
	if f.gmtFaults != "" {
		if err := writeFile(f.gmtFaults, func(w io.Writer) error {
			return export.WriteFaultGMT(w, res.Catalog.Faults())
		}); err != nil {
			return err
		}
	}

	return report(out, run, res, f.outcomes)
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func report(out io.Writer, run *models.Run, res *compiler.Result, perSource bool) error {
	fmt.Fprintf(out, "run %s (%s): %d records, %d compiled, %d dropped, %d failed\n",
		run.ID, run.Strategy, run.Records, run.Compiled, run.Dropped, run.Failed)
	fmt.Fprintf(out, "areas %d, faults %d\n", len(res.Catalog.Areas()), len(res.Catalog.Faults()))
	if !perSource {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tKIND\tSTATUS\tMMIN\tMMAX\tBINS\tCOVERAGE\tDETAIL")
	for _, o := range res.Outcomes {
		detail := o.Reason
		if o.Err != nil {
			detail = o.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%d\t%d\t%s\n",
			o.Label.ID, o.Label.Kind, o.Status, o.Grid.Min, o.Grid.Max, o.Grid.Count, o.Coverage, detail)
	}
	return tw.Flush()
}
