package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yodhcn/kikoeru-express/internal/config"
	"github.com/yodhcn/kikoeru-express/internal/entities"
)

// RemoveWorkCommand deletes one work and collects what it leaves behind.
type RemoveWorkCommand struct {
	WorkID       uint
	DatabasePath string
	Verbose      bool

	cfg *config.Config
	out io.Writer
}

func NewRemoveWorkCommand(cfg *config.Config) *RemoveWorkCommand {
	return &RemoveWorkCommand{cfg: cfg}
}

func (cmd *RemoveWorkCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("remove-work", flag.ExitOnError)

	fs.UintVar(&cmd.WorkID, "id", 0, "Numeric id of the work to remove, without the RJ prefix (required)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s remove-work -id <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Remove a work from the catalog and every mylist and playlist.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.WorkID == 0 {
		return fmt.Errorf("required flag -id not provided")
	}
	return nil
}

func (cmd *RemoveWorkCommand) Run(ctx context.Context) error {
	out := output(cmd.out)

	s, err := openSession(cmd.cfg, cmd.DatabasePath, cmd.Verbose)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.db.Catalog.RemoveWork(ctx, cmd.WorkID)
	if report.Removed || err != nil {
		s.audit.LogRemove(entities.DefaultUsername, cmd.WorkID, report.Collections, report.Orphans.Total(), err)
	}
	if err != nil {
		return err
	}

	if !report.Removed {
		fmt.Fprintf(out, "RJ%06d is not in the catalog\n", cmd.WorkID)
		return nil
	}
	fmt.Fprintf(out, "Removed RJ%06d\n", cmd.WorkID)
	fmt.Fprintf(out, "Pruned from %d collections\n", report.Collections)
	printReport(out, "Collected", report.Orphans.Circles, report.Orphans.Series,
		report.Orphans.VoiceActors, report.Orphans.DlsiteTags, report.Orphans.UserTags)
	return nil
}

func printReport(out io.Writer, heading string, circles, series, vas, dlsiteTags, userTags int64) {
	fmt.Fprintf(out, "%s:\n", heading)
	fmt.Fprintf(out, "  circles:      %d\n", circles)
	fmt.Fprintf(out, "  series:       %d\n", series)
	fmt.Fprintf(out, "  voice actors: %d\n", vas)
	fmt.Fprintf(out, "  global tags:  %d\n", dlsiteTags)
	fmt.Fprintf(out, "  user tags:    %d\n", userTags)
}
