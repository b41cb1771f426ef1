package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yodhcn/kikoeru-express/internal/config"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
)

// SyncTagsCommand applies global tag definitions (names and categories) to
// the tags already in the catalog.
type SyncTagsCommand struct {
	FilePath     string
	DatabasePath string
	Verbose      bool

	cfg *config.Config
	out io.Writer
}

func NewSyncTagsCommand(cfg *config.Config) *SyncTagsCommand {
	return &SyncTagsCommand{cfg: cfg}
}

func (cmd *SyncTagsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync-tags", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "Path to a JSON array of {id, name, category} tag definitions (required)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync-tags -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Rename and recategorize existing global tags. Unknown ids are skipped.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.FilePath == "" {
		return fmt.Errorf("required flag -file not provided")
	}
	return nil
}

func (cmd *SyncTagsCommand) Run(ctx context.Context) error {
	out := output(cmd.out)

	f, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to open tag file: %w", err)
	}
	defer f.Close()

	defs, err := ingest.DecodeTagDefinitions(f)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.cfg, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer s.Close()

	updated, err := s.db.Catalog.SyncGlobalTags(ctx, ingest.GlobalTags(defs))
	s.audit.LogTagSync(len(defs), updated, err)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Updated %d of %d tag definitions\n", updated, len(defs))
	return nil
}
