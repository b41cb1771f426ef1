package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/logging"
)

// Store persists normalized works.
type Store interface {
	UpsertWork(ctx context.Context, md catalog.WorkMetadata) error
}

// Recorder receives one audit record per ingested work.
type Recorder interface {
	LogIngest(batchID string, workID uint, title string, err error)
}

// Archiver keeps a copy of every raw batch.
type Archiver interface {
	SaveJSON(data any) (string, error)
}

// Failure describes one record that could not be stored.
type Failure struct {
	WorkID uint   `json:"work_id"`
	Error  string `json:"error"`
}

// Result summarizes one ingestion batch.
type Result struct {
	BatchID  string    `json:"batch_id"`
	Received int       `json:"received"`
	Stored   int       `json:"stored"`
	Failed   []Failure `json:"failed,omitempty"`
	Archive  string    `json:"archive,omitempty"`
}

// Pipeline handles the ingestion workflow:
// archive raw batch → normalize each record → upsert → audit.
//
// Records are stored independently: a bad record is reported in
// Result.Failed and does not stop the rest of the batch.
type Pipeline struct {
	store    Store
	recorder Recorder
	archiver Archiver
	logger   *log.Logger
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithRecorder sends per-work audit events to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithArchiver archives each raw batch before it is processed.
func WithArchiver(a Archiver) Option {
	return func(p *Pipeline) { p.archiver = a }
}

// WithLogger sets the pipeline logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a new ingestion pipeline writing to store.
func NewPipeline(store Store, opts ...Option) *Pipeline {
	p := &Pipeline{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	return p
}

// Ingest stores a batch of raw works. The returned error is non-nil only
// when the context is done; per-record failures are part of the result.
func (p *Pipeline) Ingest(ctx context.Context, works []RawWork) (Result, error) {
	result := Result{BatchID: uuid.NewString(), Received: len(works)}
	if len(works) == 0 {
		return result, nil
	}
	logger := p.logger.With("batch", result.BatchID)

	if p.archiver != nil {
		name, err := p.archiver.SaveJSON(works)
		if err != nil {
			logger.Warn("failed to archive raw batch", "err", err)
		} else {
			result.Archive = name
		}
	}

	for _, raw := range works {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		err := p.ingestOne(ctx, raw)
		if p.recorder != nil {
			p.recorder.LogIngest(result.BatchID, raw.ID, raw.Title, err)
		}
		if err != nil {
			logger.Warn("work rejected", "work", raw.ID, "err", err)
			result.Failed = append(result.Failed, Failure{WorkID: raw.ID, Error: err.Error()})
			continue
		}
		result.Stored++
	}

	logger.Info("ingest finished", "received", result.Received, "stored", result.Stored, "failed", len(result.Failed))
	return result, nil
}

func (p *Pipeline) ingestOne(ctx context.Context, raw RawWork) error {
	md, err := raw.Metadata()
	if err != nil {
		return err
	}
	return p.store.UpsertWork(ctx, md)
}

// IngestFile reads a scraper JSON file and ingests it.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (Result, error) {
	works, err := ReadWorksFile(path)
	if err != nil {
		return Result{}, err
	}
	return p.Ingest(ctx, works)
}

// DecodeWorks accepts either a JSON array of works or a single work object.
func DecodeWorks(r io.Reader) ([]RawWork, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read works: %w", err)
	}
	var works []RawWork
	if err := json.Unmarshal(data, &works); err == nil {
		return works, nil
	}
	var single RawWork
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("decode works: %w", err)
	}
	return []RawWork{single}, nil
}

// ReadWorksFile decodes a scraper JSON file.
func ReadWorksFile(path string) ([]RawWork, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeWorks(f)
}

// DecodeTagDefinitions reads a JSON array of global tag definitions.
func DecodeTagDefinitions(r io.Reader) ([]RawTag, error) {
	var defs []RawTag
	if err := json.NewDecoder(r).Decode(&defs); err != nil {
		return nil, fmt.Errorf("decode tag definitions: %w", err)
	}
	for _, def := range defs {
		if def.ID == 0 {
			return nil, fmt.Errorf("tag %q has no id", def.Name)
		}
	}
	return defs, nil
}
