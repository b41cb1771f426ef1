package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yodhcn/kikoeru-express/internal/config"
)

// ScanOrphansCommand reports shared entities that no work references.
// Nothing is deleted.
type ScanOrphansCommand struct {
	DatabasePath string

	cfg *config.Config
	out io.Writer
}

func NewScanOrphansCommand(cfg *config.Config) *ScanOrphansCommand {
	return &ScanOrphansCommand{cfg: cfg}
}

func (cmd *ScanOrphansCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("scan-orphans", flag.ExitOnError)
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s scan-orphans [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	return fs.Parse(args)
}

func (cmd *ScanOrphansCommand) Run(ctx context.Context) error {
	s, err := openSession(cmd.cfg, cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.db.ScanOrphans(ctx)
	if err != nil {
		return err
	}

	out := output(cmd.out)
	printReport(out, "Unreferenced", report.Circles, report.Series,
		report.VoiceActors, report.DlsiteTags, report.UserTags)
	if report.Total() > 0 {
		fmt.Fprintf(out, "%d unreferenced entities found\n", report.Total())
	}
	return nil
}
