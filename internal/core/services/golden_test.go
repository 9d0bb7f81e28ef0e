package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-notes/internal/core/domain"
)

const validRecord = `{"id":"q1","query":"How do I refresh tokens?","type":"technical","difficulty":"easy",` +
	`"expected_notes":["auth/oauth-flow.md"],"expected_confidence":"high","expected_next_step":"rotate keys"}`

func TestGoldenDatasetLoader_Parse(t *testing.T) {
	loader := NewGoldenDatasetLoader()

	t.Run("valid with blank lines", func(t *testing.T) {
		input := "\n" + validRecord + "\n   \n" +
			`{"id":"q2","query":"Status of redesign?","type":"project","difficulty":"hard",` +
			`"expected_notes":["a.md","b.md"],"expected_confidence":"medium","expected_next_step":"",` +
			`"expected_answer_outline":["owner","date"],"required_evidence_count":2,"allowed_source_scope":"project"}` + "\n"

		ds, err := loader.Parse(strings.NewReader(input))

		require.NoError(t, err)
		require.Equal(t, 2, ds.Size())
		assert.Equal(t, "q1", ds.Queries[0].ID)
		assert.Equal(t, domain.QueryTypeTechnical, ds.Queries[0].Type)
		q2 := ds.Queries[1]
		assert.Equal(t, []string{"a.md", "b.md"}, q2.ExpectedNotes)
		assert.Equal(t, 2, q2.RequiredEvidenceCount)
		assert.Equal(t, domain.SourceScopeProject, q2.AllowedSourceScope)
		assert.Equal(t, []string{"owner", "date"}, q2.ExpectedAnswerOutline)
	})

	t.Run("empty input", func(t *testing.T) {
		ds, err := loader.Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.Equal(t, 0, ds.Size())
	})

	tests := []struct {
		name      string
		input     string
		wantLine  int
		wantField string
		wantErr   error
	}{
		{
			name:      "missing id reports its line",
			input:     validRecord + "\n\n" + strings.Replace(validRecord, `"id":"q1",`, "", 1),
			wantLine:  3,
			wantField: "id",
			wantErr:   domain.ErrMissingField,
		},
		{
			name:      "null field counts as missing",
			input:     strings.Replace(validRecord, `"expected_next_step":"rotate keys"`, `"expected_next_step":null`, 1),
			wantLine:  1,
			wantField: "expected_next_step",
			wantErr:   domain.ErrMissingField,
		},
		{
			name:      "blank id",
			input:     strings.Replace(validRecord, `"id":"q1"`, `"id":"  "`, 1),
			wantLine:  1,
			wantField: "id",
			wantErr:   domain.ErrMissingField,
		},
		{
			name:      "bogus type",
			input:     strings.Replace(validRecord, `"type":"technical"`, `"type":"bogus"`, 1),
			wantLine:  1,
			wantField: "type",
			wantErr:   domain.ErrInvalidEnum,
		},
		{
			name:      "bogus difficulty",
			input:     strings.Replace(validRecord, `"difficulty":"easy"`, `"difficulty":"extreme"`, 1),
			wantLine:  1,
			wantField: "difficulty",
			wantErr:   domain.ErrInvalidEnum,
		},
		{
			name:      "bogus confidence",
			input:     strings.Replace(validRecord, `"expected_confidence":"high"`, `"expected_confidence":"sure"`, 1),
			wantLine:  1,
			wantField: "expected_confidence",
			wantErr:   domain.ErrInvalidEnum,
		},
		{
			name:      "bogus scope",
			input:     strings.Replace(validRecord, `}`, `,"allowed_source_scope":"planet"}`, 1),
			wantLine:  1,
			wantField: "allowed_source_scope",
			wantErr:   domain.ErrInvalidEnum,
		},
		{
			name:      "duplicate id",
			input:     validRecord + "\n" + validRecord,
			wantLine:  2,
			wantField: "id",
			wantErr:   domain.ErrDuplicateID,
		},
		{
			name:      "wrong json type",
			input:     strings.Replace(validRecord, `["auth/oauth-flow.md"]`, `"auth/oauth-flow.md"`, 1),
			wantLine:  1,
			wantField: "expected_notes",
		},
		{
			name:      "negative evidence count",
			input:     strings.Replace(validRecord, `}`, `,"required_evidence_count":-1}`, 1),
			wantLine:  1,
			wantField: "required_evidence_count",
		},
		{
			name:     "malformed json",
			input:    validRecord + "\n{not json",
			wantLine: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := loader.Parse(strings.NewReader(tt.input))

			require.Error(t, err)
			assert.Nil(t, ds)
			assert.ErrorIs(t, err, domain.ErrInvalidDataset)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			var de *domain.DatasetError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.wantLine, de.Line)
			assert.Equal(t, tt.wantField, de.Field)
			assert.Contains(t, err.Error(), fmt.Sprintf("line %d", tt.wantLine))
		})
	}
}

func TestGoldenDatasetLoader_Load(t *testing.T) {
	loader := NewGoldenDatasetLoader()

	t.Run("sets path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "golden.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(validRecord+"\n"), 0o600))

		ds, err := loader.Load(path)

		require.NoError(t, err)
		assert.Equal(t, path, ds.Path)
		assert.Equal(t, 1, ds.Size())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(filepath.Join(t.TempDir(), "missing.jsonl"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid file names path and line", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.jsonl")
		require.NoError(t, os.WriteFile(path, []byte(validRecord+"\n"+validRecord), 0o600))

		_, err := loader.Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestGoldenDatasetLoader_Balance(t *testing.T) {
	loader := NewGoldenDatasetLoader()

	balanced := func() *domain.GoldenDataset {
		ds := &domain.GoldenDataset{}
		types := []string{"technical", "project", "research", "maintenance"}
		for i := 0; i < 80; i++ {
			difficulty := "easy"
			switch {
			case i%20 >= 16:
				difficulty = "hard"
			case i%20 >= 7:
				difficulty = "medium"
			}
			q := domain.GoldenQuery{
				ID:                 fmt.Sprintf("q%d", i),
				Type:               domain.QueryType(types[i%4]),
				Difficulty:         domain.Difficulty(difficulty),
				ExpectedConfidence: domain.ConfidenceHigh,
				ExpectedNotes:      []string{"a.md"},
			}
			if i < 20 {
				q.ExpectedConfidence = domain.ConfidenceLow
				q.ExpectedNotes = nil
			}
			ds.Queries = append(ds.Queries, q)
		}
		return ds
	}

	t.Run("balanced", func(t *testing.T) {
		report := loader.Balance(balanced())

		assert.True(t, report.Balanced, report.Issues)
		assert.Empty(t, report.Issues)
		assert.Equal(t, 20, report.TypeCounts[domain.QueryTypeProject])
		assert.InDelta(t, 35.0, report.DifficultyPercent[domain.DifficultyEasy], 1e-9)
		assert.InDelta(t, 45.0, report.DifficultyPercent[domain.DifficultyMedium], 1e-9)
		assert.InDelta(t, 20.0, report.DifficultyPercent[domain.DifficultyHard], 1e-9)
		assert.Equal(t, 20, report.NoAnswerCount)
	})

	t.Run("skewed", func(t *testing.T) {
		ds := &domain.GoldenDataset{}
		for i := 0; i < 4; i++ {
			ds.Queries = append(ds.Queries, domain.GoldenQuery{
				ID:                 fmt.Sprintf("t%d", i),
				Type:               domain.QueryTypeTechnical,
				Difficulty:         domain.DifficultyEasy,
				ExpectedConfidence: domain.ConfidenceHigh,
			})
		}

		report := loader.Balance(ds)

		assert.False(t, report.Balanced)
		assert.Equal(t, 0, report.TypeCounts[domain.QueryTypeResearch])
		joined := strings.Join(report.Issues, "\n")
		assert.Contains(t, joined, "type technical")
		assert.Contains(t, joined, "type research")
		assert.Contains(t, joined, "difficulty easy is 100.0%")
		assert.Contains(t, joined, "difficulty hard is 0.0%")
		assert.Contains(t, joined, "no-answer")
	})

	t.Run("empty", func(t *testing.T) {
		for _, ds := range []*domain.GoldenDataset{nil, {}} {
			report := loader.Balance(ds)
			assert.False(t, report.Balanced)
			assert.Equal(t, []string{"dataset is empty"}, report.Issues)
			assert.Len(t, report.TypeCounts, 4)
		}
	})
}
