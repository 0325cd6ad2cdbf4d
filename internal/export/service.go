// Package export builds point-in-time PDF briefs from engine status:
// report model in, artifact on disk out, with an audit trail entry per
// export.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/polycrisisio/wssi-deck/internal/audit"
	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/engine"
	"github.com/polycrisisio/wssi-deck/internal/projector"
)

// Result describes one completed export.
type Result struct {
	Path        string    `json:"path"`
	Format      string    `json:"format"`
	Fallback    bool      `json:"fallback"`
	SizeBytes   int64     `json:"size_bytes"`
	GeneratedAt time.Time `json:"generated_at"`
	AuditID     string    `json:"audit_id,omitempty"`
}

// Options configures an export Service.
type Options struct {
	// OutDir receives the artifacts. Defaults to "exports".
	OutDir string
	// Converter produces the PDF. Nil means HTML is the intended
	// output format, not a fallback.
	Converter DocumentConverter
	// Trail records each export. Nil disables auditing.
	Trail     *audit.Log
	Projector *projector.Projector
	Logger    *common.Logger
	Now       func() time.Time
}

// Service is the export pipeline.
type Service struct {
	outDir    string
	converter DocumentConverter
	trail     *audit.Log
	projector *projector.Projector
	logger    *common.Logger
	now       func() time.Time
}

// NewService creates an export service.
func NewService(opts Options) *Service {
	s := &Service{
		outDir:    opts.OutDir,
		converter: opts.Converter,
		trail:     opts.Trail,
		projector: opts.Projector,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.outDir == "" {
		s.outDir = "exports"
	}
	if s.projector == nil {
		s.projector = projector.NewProjector()
	}
	if s.logger == nil {
		s.logger = common.NewSilentLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Export builds the report for the given status, renders it, converts
// to PDF, and writes the artifact. Conversion failure degrades to an
// HTML artifact marked as a fallback rather than failing the export.
// Returns projector.ErrNoData when no summary snapshot exists.
func (s *Service) Export(ctx context.Context, st engine.Status) (*Result, error) {
	report, err := s.projector.BuildReportModel(st)
	if err != nil {
		return nil, err
	}

	html, err := renderBrief(report)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	base := "wssi-brief-" + s.now().UTC().Format("2006-01-02-150405")
	res := &Result{Format: "pdf", GeneratedAt: report.GeneratedAt}

	var artifact []byte
	if s.converter != nil {
		pdf, cerr := s.converter.Convert(ctx, html)
		if cerr != nil {
			s.logger.Warn().Err(cerr).Msg("pdf conversion failed, writing html fallback")
			res.Fallback = true
		} else {
			artifact = pdf
		}
	}
	if artifact == nil {
		artifact = html
		res.Format = "html"
	}

	path := filepath.Join(s.outDir, base+"."+res.Format)
	if err := os.WriteFile(path, artifact, 0o644); err != nil {
		return nil, fmt.Errorf("write brief artifact: %w", err)
	}
	res.Path = path
	res.SizeBytes = int64(len(artifact))

	s.record(ctx, report, res)

	s.logger.Info().
		Str("path", res.Path).
		Str("format", res.Format).
		Bool("fallback", res.Fallback).
		Str("tier", string(report.Tier)).
		Msg("brief exported")

	return res, nil
}

// Recent lists the newest audit entries, or nil when auditing is off.
func (s *Service) Recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	if s.trail == nil {
		return nil, nil
	}
	return s.trail.Recent(ctx, limit)
}

// record appends the export to the audit trail. Audit failure never
// fails an export that already produced its artifact.
func (s *Service) record(ctx context.Context, report *projector.ReportModel, res *Result) {
	if s.trail == nil {
		return
	}
	blob, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to serialize report for audit")
	}
	entry, err := s.trail.Record(ctx, audit.Entry{
		Tier:      string(report.Tier),
		Artifact:  res.Path,
		Format:    res.Format,
		Fallback:  res.Fallback,
		SizeBytes: res.SizeBytes,
		Report:    string(blob),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to record export in audit trail")
		return
	}
	res.AuditID = entry.ID
}
