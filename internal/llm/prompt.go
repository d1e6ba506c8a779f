package llm

import (
	"strings"
)

// TranscriptionSystemPrompt instructs the vision model to read one page image.
const TranscriptionSystemPrompt = "You are a document transcriber. Transcribe all visible text on the page image. " +
	"Preserve the structure of the page (headings, lists, tables, columns) and return the result as markdown. " +
	"Return ONLY the markdown. Do not add commentary, and do not wrap the output in code fences."

// TranscriptionUserPrompt accompanies the page image.
const TranscriptionUserPrompt = "Transcribe this résumé page to markdown."

// BuildExtractionSystemPrompt enumerates the required fields and the normalization rules.
func BuildExtractionSystemPrompt() string {
	parts := []string{
		"You are a résumé parser. Return ONLY JSON that matches the provided JSON Schema.",
		"Extract exactly these fields: 'name' (the candidate's full name), 'email' (the candidate's email address),",
		"'phone' (the candidate's mobile number), and 'companies' (the employers the candidate has worked for, most recent first).",
		"Phone rule: Indonesian mobile numbers written with a leading '0' must be rewritten to start with '+62' and drop the leading zero,",
		"for example '081228051404' becomes '+6281228051404'. Numbers already starting with '+62' are kept. Remove spaces and dashes.",
		"If the phone number is not an Indonesian mobile number, or cannot be determined, return 'N/A'.",
		"If the email cannot be determined, return 'N/A'. Never guess a value and never omit a field.",
		"'companies' must be a list of company names only (no job titles or dates); use an empty list if none are listed.",
		"Do not add any other fields.",
	}
	return strings.Join(parts, " ")
}

// BuildExtractionPrompt packages the consolidated transcript for the text path.
func BuildExtractionPrompt(consolidated string) string {
	var b strings.Builder
	b.WriteString("Résumé transcript (pages separated by '---'):\n\n")
	b.WriteString(strings.TrimSpace(consolidated))
	return b.String()
}

// FastPathExtractionPrompt accompanies a single page image on the fast path.
const FastPathExtractionPrompt = "An image of the first page of a résumé is attached. Extract the fields from it."
