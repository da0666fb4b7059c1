package normalizer

import "regexp"

// Rule is one pattern-based repair applied to a raw log entry before JSON parsing.
// Only the first match is replaced and Replacement is used literally.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Apply returns s with the first match of the rule's pattern replaced.
func (r Rule) Apply(s string) string {
	loc := r.Pattern.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + r.Replacement + s[loc[1]:]
}

// Loggly forwards Cloud Foundry environment blobs JSON-encoded inside a string without
// escaping their quotes. Those fields are cut out so the rest of the document parses.
var (
	vcapApplicationPattern = regexp.MustCompile(`"VCAP_APPLICATION":"\{.*\}",`)
	cfInstancePortsPattern = regexp.MustCompile(`"CF_INSTANCE_PORTS":"\[.*\]",`)
	featuresPattern        = regexp.MustCompile(`"FEATURES":"\{.*\}",`)

	// Stops at the first following ","exception. A trace that itself contains that
	// substring is cut short.
	exceptionTracePattern = regexp.MustCompile(`"exception_trace":[\s\S]*?","exception`)

	// Loggly truncates long events with a trailing "...".
	truncatedTailPattern = regexp.MustCompile(`",[^,*]*\.\.\.$`)
)

// DefaultRules returns the ordered repairs for the known Loggly escaping defects.
// Later rules assume earlier ones have run.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "strip_vcap_application", Pattern: vcapApplicationPattern, Replacement: ""},
		{Name: "strip_cf_instance_ports", Pattern: cfInstancePortsPattern, Replacement: ""},
		{Name: "strip_features", Pattern: featuresPattern, Replacement: ""},
		{Name: "collapse_exception_trace", Pattern: exceptionTracePattern, Replacement: `"exception`},
		{Name: "close_truncated_tail", Pattern: truncatedTailPattern, Replacement: `"}}`},
	}
}
