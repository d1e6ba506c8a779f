package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/cv-intake/constants"
)

// StripCodeFences removes a surrounding ```json ... ``` block if the model added one.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NormalizeAndSanitizeJSON
// - Strips code fences around the payload
// - Trims string fields
// - Maps null/empty email and phone to the N/A sentinel
// - Replaces a null companies list with [] and drops blank company names
// Unknown keys are kept so that schema validation can reject them.
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(StripCodeFences(string(raw))), &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)

	if v, ok := m["name"].(string); ok {
		m["name"] = strings.TrimSpace(v)
	}
	for _, k := range []string{"email", "phone"} {
		v, present := m[k]
		if !present {
			continue
		}
		switch t := v.(type) {
		case nil:
			m[k] = constants.NotAvailable
			dropped = append(dropped, k+"(null)")
		case string:
			s := strings.TrimSpace(t)
			if s == "" {
				m[k] = constants.NotAvailable
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	if v, present := m["companies"]; present {
		switch t := v.(type) {
		case nil:
			m["companies"] = []any{}
			dropped = append(dropped, "companies(null)")
		case []any:
			kept := make([]any, 0, len(t))
			for _, item := range t {
				s, ok := item.(string)
				if !ok {
					kept = append(kept, item)
					continue
				}
				s = strings.TrimSpace(s)
				if s == "" {
					dropped = append(dropped, "companies(blank)")
					continue
				}
				kept = append(kept, s)
			}
			m["companies"] = kept
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}
