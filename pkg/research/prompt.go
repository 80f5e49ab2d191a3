package research

import (
	"fmt"
	"strings"
)

// FormatContext renders merged hits into a model-readable context
// block, one section per file, in merge order.
func FormatContext(hits []SearchHit) string {
	if len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "File: %s/%s\n", h.Repository, h.Path)
		if h.Content != "" {
			b.WriteString("```\n")
			b.WriteString(h.Content)
			if !strings.HasSuffix(h.Content, "\n") {
				b.WriteByte('\n')
			}
			b.WriteString("```\n")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatFindings renders prior round findings for inclusion in a
// synthesis or final-answer prompt.
func FormatFindings(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range findings {
		fmt.Fprintf(&b, "--- Findings from round %d ---\n%s\n\n", f.Round, f.Text)
	}
	return b.String()
}
