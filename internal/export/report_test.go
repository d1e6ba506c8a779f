package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

func TestOutcomesXLSX(t *testing.T) {
	outcomes := []entity.BatchOutcome{
		{Index: 0, Filename: "a.pdf", Status: constants.OutcomeSucceeded, Record: &entity.ExtractedRecord{
			Name: "Jane", Email: "jane@example.com", Phone: "+6281228051404", Companies: []string{"PT. A", "PT. B"},
		}},
		{Index: 1, Filename: "b.pdf", Status: constants.OutcomeFailed, Error: "extracted record failed validation",
			ErrorCode: "VALIDATION_ERROR", Details: []string{"name: is required"}},
	}

	b, err := NewReport(slog.New(slog.NewTextHandler(io.Discard, nil))).OutcomesXLSX(outcomes)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, reportHeaders, rows[0])
	assert.Equal(t, []string{"a.pdf", "SUCCEEDED", "", "", "Jane", "jane@example.com", "+6281228051404", "PT. A, PT. B"}, rows[1])
	assert.Equal(t, []string{"b.pdf", "FAILED", "VALIDATION_ERROR", "extracted record failed validation (name: is required)"}, rows[2])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
