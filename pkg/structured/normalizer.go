package structured

import (
	"encoding/json"
	"log/slog"
	"strings"

	"roundtable-hq/roundtable/pkg/providers"
)

// FallbackContent is returned when a backend produced neither structured
// payload nor plain text. The engine never returns an empty response.
const FallbackContent = "I understand."

// Normalize converts raw adapter output into the canonical structured
// response. Extraction priority: the backend's native structured payload
// parsed against the expected schema, then the plain text field, then the
// fixed filler. It never fails; a malformed payload degrades, and the
// degradation is logged so operators can track provider output quality.
//
// The speaker field is forced to personaName unconditionally at this single
// choke point, regardless of what any adapter or backend produced. Models
// hallucinating another participant's name must never cause cross-persona
// attribution.
func Normalize(resp *providers.ChatResponse, personaName string) *Response {
	result := extract(resp, personaName)
	result.Speaker = personaName
	return result
}

func extract(resp *providers.ChatResponse, personaName string) *Response {
	if resp == nil {
		return &Response{Content: FallbackContent}
	}

	if resp.StructuredPayload != "" {
		var parsed Response
		if err := json.Unmarshal([]byte(resp.StructuredPayload), &parsed); err == nil && parsed.Content != "" {
			return &parsed
		}
		slog.Warn("malformed structured payload, degrading to plain text",
			"persona", personaName,
			"payload_bytes", len(resp.StructuredPayload),
		)
	}

	if text := strings.TrimSpace(resp.Content); text != "" {
		// Some models answer with schema-shaped JSON in the plain text
		// field; honor it when it parses cleanly.
		if strings.HasPrefix(text, "{") {
			var parsed Response
			if err := json.Unmarshal([]byte(text), &parsed); err == nil && parsed.Content != "" {
				return &parsed
			}
		}
		return &Response{Content: text}
	}

	// Fall back to the raw payload text before giving up entirely, so a
	// structured channel that returned non-JSON prose is not discarded.
	if text := strings.TrimSpace(resp.StructuredPayload); text != "" && !strings.HasPrefix(text, "{") {
		return &Response{Content: text}
	}

	return &Response{Content: FallbackContent}
}
