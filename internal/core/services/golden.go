package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
	"github.com/custodia-labs/sercha-notes/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-notes/internal/logger"
)

// Ensure GoldenDatasetLoader implements the interface.
var _ driving.DatasetService = (*GoldenDatasetLoader)(nil)

// maxDatasetLine bounds a single dataset record.
const maxDatasetLine = 1 << 20

// requiredFields must be present and non-null on every record, in check order.
var requiredFields = []string{
	"id", "query", "type", "difficulty",
	"expected_notes", "expected_confidence", "expected_next_step",
}

// GoldenDatasetLoader parses and validates newline-delimited JSON golden datasets.
type GoldenDatasetLoader struct{}

// NewGoldenDatasetLoader creates a new loader.
func NewGoldenDatasetLoader() *GoldenDatasetLoader {
	return &GoldenDatasetLoader{}
}

// Load parses the dataset at path.
func (l *GoldenDatasetLoader) Load(path string) (*domain.GoldenDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := l.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	ds.Path = path
	logger.Info("Loaded %d golden queries from %s", ds.Size(), path)
	return ds, nil
}

// Parse parses a dataset from r. Blank lines are skipped; the first invalid
// record aborts the whole load with a line-numbered DatasetError.
func (l *GoldenDatasetLoader) Parse(r io.Reader) (*domain.GoldenDataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDatasetLine)

	ds := &domain.GoldenDataset{}
	firstSeen := make(map[string]int)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		q, err := parseGoldenQuery(line, []byte(raw))
		if err != nil {
			return nil, err
		}
		if prev, dup := firstSeen[q.ID]; dup {
			return nil, &domain.DatasetError{
				Line:  line,
				Field: "id",
				Err:   fmt.Errorf("%w: %q first seen on line %d", domain.ErrDuplicateID, q.ID, prev),
			}
		}
		firstSeen[q.ID] = line
		ds.Queries = append(ds.Queries, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	if ds.Size() == 0 {
		logger.Warn("Golden dataset contains no queries")
	}
	logger.Debug("Parsed %d golden queries over %d lines", ds.Size(), line)
	return ds, nil
}

func parseGoldenQuery(line int, raw []byte) (domain.GoldenQuery, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.GoldenQuery{}, &domain.DatasetError{Line: line, Err: fmt.Errorf("decode record: %w", err)}
	}
	for _, name := range requiredFields {
		v, ok := fields[name]
		if !ok || string(v) == "null" {
			return domain.GoldenQuery{}, &domain.DatasetError{Line: line, Field: name, Err: domain.ErrMissingField}
		}
	}

	var q domain.GoldenQuery
	if err := json.Unmarshal(raw, &q); err != nil {
		de := &domain.DatasetError{Line: line, Err: err}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			de.Field = typeErr.Field
		}
		return domain.GoldenQuery{}, de
	}

	q.ID = strings.TrimSpace(q.ID)
	switch {
	case q.ID == "":
		return q, &domain.DatasetError{Line: line, Field: "id", Err: domain.ErrMissingField}
	case strings.TrimSpace(q.Query) == "":
		return q, &domain.DatasetError{Line: line, Field: "query", Err: domain.ErrMissingField}
	case !q.Type.IsValid():
		return q, enumError(line, "type", string(q.Type))
	case !q.Difficulty.IsValid():
		return q, enumError(line, "difficulty", string(q.Difficulty))
	case !q.ExpectedConfidence.IsValid():
		return q, enumError(line, "expected_confidence", string(q.ExpectedConfidence))
	case q.AllowedSourceScope != "" && !q.AllowedSourceScope.IsValid():
		return q, enumError(line, "allowed_source_scope", string(q.AllowedSourceScope))
	case q.RequiredEvidenceCount < 0:
		return q, &domain.DatasetError{
			Line:  line,
			Field: "required_evidence_count",
			Err:   fmt.Errorf("must be non-negative, got %d", q.RequiredEvidenceCount),
		}
	}
	return q, nil
}

func enumError(line int, field, value string) error {
	return &domain.DatasetError{Line: line, Field: field, Err: fmt.Errorf("%w: %q", domain.ErrInvalidEnum, value)}
}
