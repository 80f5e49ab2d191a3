package research

import (
	"regexp"
	"strings"
)

// DefaultMaxKeywords caps round-over-round query fan-out.
const DefaultMaxKeywords = 5

var backtickTerm = regexp.MustCompile("`([^`\n]{1,80})`")

// Expander derives follow-up queries from a round's finding. Candidates
// come from the model-suggested follow-up terms first, then from
// backtick-quoted identifiers in the finding text. Order is preserved
// (the model's own ranking is trusted); candidates equal to an
// already-issued query are dropped under case-insensitive comparison.
type Expander struct {
	max int
}

func NewExpander(max int) *Expander {
	if max <= 0 {
		max = DefaultMaxKeywords
	}
	return &Expander{max: max}
}

// Expand returns up to max new queries not present in issued. The
// issued set is keyed by NormalizeQuery; Expand does not mutate it.
func (e *Expander) Expand(finding *Finding, issued map[string]struct{}) []string {
	if finding == nil {
		return nil
	}

	candidates := make([]string, 0, len(finding.FollowUps))
	candidates = append(candidates, finding.FollowUps...)
	for _, m := range backtickTerm.FindAllStringSubmatch(finding.Text, -1) {
		candidates = append(candidates, m[1])
	}

	picked := make(map[string]struct{})
	var out []string
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		norm := NormalizeQuery(c)
		if _, dup := issued[norm]; dup {
			continue
		}
		if _, dup := picked[norm]; dup {
			continue
		}
		picked[norm] = struct{}{}
		out = append(out, c)
		if len(out) == e.max {
			break
		}
	}
	return out
}
