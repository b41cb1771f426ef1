package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yodhcn/kikoeru-express/internal/audit"
	"github.com/yodhcn/kikoeru-express/internal/config"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
)

// IngestCommand upserts the works of a scraper JSON file.
type IngestCommand struct {
	FilePath     string
	DatabasePath string
	Archive      bool
	Verbose      bool

	cfg *config.Config
	out io.Writer
}

func NewIngestCommand(cfg *config.Config) *IngestCommand {
	return &IngestCommand{cfg: cfg}
}

func (cmd *IngestCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a scraper JSON file holding one work or an array of works (required)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")
	fs.BoolVar(&cmd.Archive, "archive", false, "Archive the raw batch to the audit directory before ingesting")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s ingest -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Insert or update works from a scraper JSON file.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s ingest -file works.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s ingest -file works.json -db ./data/kikoeru.db -archive\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *IngestCommand) Run(ctx context.Context) error {
	out := output(cmd.out)

	works, err := ingest.ReadWorksFile(cmd.FilePath)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.cfg, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer s.Close()

	opts := []ingest.Option{ingest.WithRecorder(s.audit), ingest.WithLogger(s.logger)}
	if cmd.Archive {
		opts = append(opts, ingest.WithArchiver(audit.NewAuditor(cmd.cfg.Audit.Dir)))
	}
	result, err := ingest.NewPipeline(s.db.Catalog, opts...).Ingest(ctx, works)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Batch %s\n", result.BatchID)
	fmt.Fprintf(out, "Received: %d\n", result.Received)
	fmt.Fprintf(out, "Stored:   %d\n", result.Stored)
	fmt.Fprintf(out, "Failed:   %d\n", len(result.Failed))
	for _, f := range result.Failed {
		fmt.Fprintf(out, "  RJ%06d: %s\n", f.WorkID, f.Error)
	}
	if result.Archive != "" {
		fmt.Fprintf(out, "Archived as %s\n", result.Archive)
	}

	if len(result.Failed) > 0 {
		return fmt.Errorf("%d of %d works failed", len(result.Failed), result.Received)
	}
	return nil
}
