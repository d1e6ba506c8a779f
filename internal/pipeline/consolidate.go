package pipeline

import (
	"slices"
	"strings"

	"github.com/joseph-ayodele/cv-intake/constants"
	"github.com/joseph-ayodele/cv-intake/internal/entity"
)

// Consolidate joins transcripts by ascending page index with a horizontal-rule separator.
// The input slice is not modified.
func Consolidate(transcripts []entity.PageTranscript) entity.ConsolidatedDocument {
	if len(transcripts) == 0 {
		return entity.ConsolidatedDocument{}
	}
	sorted := slices.Clone(transcripts)
	slices.SortStableFunc(sorted, func(a, b entity.PageTranscript) int {
		return a.PageIndex - b.PageIndex
	})

	texts := make([]string, len(sorted))
	for i, t := range sorted {
		texts[i] = t.Text
	}
	return entity.ConsolidatedDocument{
		Text:  strings.Join(texts, constants.PageSeparator),
		Pages: len(sorted),
	}
}
