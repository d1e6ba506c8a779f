package vertex

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/joseph-ayodele/cv-intake/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGenaiSchema_Candidate(t *testing.T) {
	s := ToGenaiSchema(llm.BuildCandidateJSONSchema())
	require.NotNil(t, s)
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"name", "email", "phone", "companies"}, s.Required)
	require.Contains(t, s.Properties, "companies")
	assert.Equal(t, genai.TypeArray, s.Properties["companies"].Type)
	require.NotNil(t, s.Properties["companies"].Items)
	assert.Equal(t, genai.TypeString, s.Properties["companies"].Items.Type)
	assert.Equal(t, genai.TypeString, s.Properties["email"].Type)
}

func TestImageFormat(t *testing.T) {
	assert.Equal(t, "jpeg", imageFormat("image/jpeg"))
	assert.Equal(t, "png", imageFormat("image/png"))
	assert.Equal(t, "jpeg", imageFormat(""))
}

func TestCollectText(t *testing.T) {
	assert.Empty(t, collectText(nil))
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}},
	}}}
	assert.Equal(t, "ab", collectText(resp))
}
