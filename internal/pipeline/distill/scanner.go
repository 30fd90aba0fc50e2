// Package distill reconstructs a labeled training set from the verification
// front-end's production logs, keeping only records whose teacher verdict
// clears the quality filters.
package distill

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gesturelab/distill/internal/domain/dedupe"
	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/domain/model"
	"github.com/gesturelab/distill/pkg/logger"
	"github.com/gesturelab/distill/pkg/metrics"
)

const (
	// logFileName is the append-only JSONL log the front-end writes.
	logFileName = "verifier_events.jsonl"

	// ConfidenceThreshold is the minimum teacher confidence for a verdict
	// to be trusted as a training label.
	ConfidenceThreshold = 0.75
)

// Skip reason labels, exported through the scan summary and metrics.
const (
	SkipMalformed     = "malformed"
	SkipMissingFields = "missing_fields"
	SkipSchemaInvalid = "schema_invalid"
	SkipLowConfidence = "low_confidence"
	SkipUnknownReason = "unknown_reason"
	SkipMissingLabel  = "missing_label"
	SkipDuplicate     = "duplicate"
)

// Summary counts scan outcomes per skip reason.
type Summary struct {
	Files    int            `json:"files"`
	Lines    int            `json:"lines"`
	Accepted int            `json:"accepted"`
	Skipped  map[string]int `json:"skipped"`
}

// Scanner walks a log directory tree and distills labeled events.
type Scanner struct {
	root      string
	threshold float64
	logger    logger.Logger
}

// Option applies a configuration option to the Scanner.
type Option func(*Scanner)

// WithRoot sets the directory tree searched for log files.
func WithRoot(root string) Option {
	return func(s *Scanner) {
		if root != "" {
			s.root = root
		}
	}
}

// WithConfidenceThreshold sets the minimum trusted teacher confidence.
func WithConfidenceThreshold(t float64) Option {
	return func(s *Scanner) {
		if t >= 0 && t <= 1 {
			s.threshold = t
		}
	}
}

// WithLogger sets a custom logger for the scanner.
func WithLogger(l logger.Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a log scanner with configuration options.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		root:      "logs",
		threshold: ConfidenceThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("distill")
	}
	return s
}

// Scan walks the log tree and returns every event whose teacher verdict
// passes the quality filters: a present feature bag and response, a
// self-declared valid schema, confidence at or above the threshold, a known
// reason category, and both an intentional flag and a gesture type. Records
// failing a filter are counted and skipped; only unreadable files abort.
func (s *Scanner) Scan(ctx context.Context) ([]model.LabeledEvent, Summary, error) {
	summary := Summary{Skipped: make(map[string]int)}

	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == logFileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, summary, fmt.Errorf("%w: %w", ErrScanLogs, err)
	}
	if len(paths) == 0 {
		return nil, summary, ErrNoLogs
	}
	summary.Files = len(paths)

	// Overlapping session archives can repeat events; each event ID
	// contributes at most one label per scan.
	seen := dedupe.NewInMemory()

	var events []model.LabeledEvent
	for _, path := range paths {
		if err := s.scanFile(path, seen, &events, &summary); err != nil {
			return nil, summary, err
		}
	}

	s.logger.Info(ctx, "log scan complete",
		logger.Int("files", summary.Files),
		logger.Int("lines", summary.Lines),
		logger.Int("accepted", summary.Accepted),
	)
	return events, summary, nil
}

func (s *Scanner) scanFile(path string, seen dedupe.Deduper, events *[]model.LabeledEvent, summary *Summary) error {
	f, err := os.Open(path) //nolint:gosec // paths come from walking the configured log root
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScanLogs, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		summary.Lines++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			s.skip(summary, SkipMalformed)
			continue
		}
		if record.EventID != "" && seen.SeenAndRecord(record.EventID) {
			s.skip(summary, SkipDuplicate)
			continue
		}

		event, reason := s.distill(record)
		if reason != "" {
			s.skip(summary, reason)
			continue
		}
		*events = append(*events, event)
		summary.Accepted++
		metrics.RecordEventDistilled()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrScanLogs, err)
	}
	return nil
}

// distill applies the quality filters to one record, returning either a
// labeled event or the reason the record was skipped.
func (s *Scanner) distill(record model.LogRecord) (model.LabeledEvent, string) {
	resp := record.Response
	if len(record.Features) == 0 || resp == nil {
		return model.LabeledEvent{}, SkipMissingFields
	}
	if !resp.IsSchemaValid() {
		return model.LabeledEvent{}, SkipSchemaInvalid
	}
	if resp.Confidence < s.threshold {
		return model.LabeledEvent{}, SkipLowConfidence
	}
	if resp.ReasonCategory == gesture.ReasonUnknown {
		return model.LabeledEvent{}, SkipUnknownReason
	}
	if resp.Intentional == nil {
		return model.LabeledEvent{}, SkipMissingLabel
	}

	gestureType, ok := record.Features.GestureType()
	if !ok {
		gestureType = record.ProposedIntent
	}
	if gestureType == "" {
		return model.LabeledEvent{}, SkipMissingLabel
	}

	label := 0
	if *resp.Intentional {
		label = 1
	}
	return model.LabeledEvent{
		EventID:           record.EventID,
		Features:          record.Features,
		GestureType:       gestureType,
		Label:             label,
		TeacherIntent:     resp.FinalIntent,
		TeacherConfidence: resp.Confidence,
		TeacherReason:     resp.ReasonCategory,
	}, ""
}

func (s *Scanner) skip(summary *Summary, reason string) {
	summary.Skipped[reason]++
	metrics.RecordEventSkipped(reason)
}
