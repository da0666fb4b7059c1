// Package normalizer turns raw Loggly hits into uniform display records.
//
// A hit goes through an ordered chain of repair rules for known escaping defects and is
// then classified: JSON documents yield message/channel/level/env, lines in the platform
// "Got error" format yield the space and service names, and anything else is passed
// through as unparsed text. Normalize never fails.
package normalizer

import (
	"bytes"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// newlineSentinel stands in for newlines while matching the single-line plain-text pattern.
const newlineSentinel = "%%%%"

// plainTextErrorPattern matches "<x>.<space>.<service>...: Got error '<message>'", where the
// message may be wrapped in newlines as the platform emits it.
var plainTextErrorPattern = regexp.MustCompile(
	`[^.,^ ]*\.([^.,^ ]*)\.([^.,^ ]*).*: Got error '(.*?)(?:` + newlineSentinel + `)?'(?:` + newlineSentinel + `)?$`,
)

// Normalizer repairs and classifies raw log entries. It holds no mutable state and is
// safe for concurrent use.
type Normalizer struct {
	rules []Rule
}

// New creates a Normalizer applying rules in order. With no rules, DefaultRules is used.
func New(rules ...Rule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// Rules returns a copy of the configured repair rules.
func (n *Normalizer) Rules() []Rule {
	out := make([]Rule, len(n.rules))
	copy(out, n.rules)
	return out
}

// Repair applies every repair rule in order.
func (n *Normalizer) Repair(raw string) string {
	for _, rule := range n.rules {
		raw = rule.Apply(raw)
	}
	return raw
}

// Normalize repairs raw and classifies it into a Record.
func (n *Normalizer) Normalize(raw string) Record {
	repaired := n.Repair(raw)

	if doc, ok := parseObject(repaired); ok {
		return fromJSON(doc)
	}
	return fromPlainText(repaired)
}

// parseObject reports whether s is a JSON object and returns it. Scalars, arrays and
// null are not treated as structured log documents.
func parseObject(s string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, false
	}
	return doc, doc != nil
}

func fromJSON(doc map[string]any) Record {
	var env string
	if ctx, ok := doc["context"].(map[string]any); ok {
		env = stringValue(ctx["env"])
		if env == "" {
			env = stringValue(ctx["APPLICATION_ENV"])
		}
	}

	level, _ := doc["level_name"].(string)

	return jsonRecord(
		stringValue(doc["message"]),
		stringValue(doc["channel"]),
		env,
		level,
	)
}

func fromPlainText(repaired string) Record {
	line := strings.ReplaceAll(repaired, "\n", newlineSentinel)

	m := plainTextErrorPattern.FindStringSubmatch(line)
	if m == nil {
		return unparsedRecord(repaired)
	}

	text := strings.ReplaceAll(m[3], newlineSentinel, "\n")
	return plainTextRecord(text, m[1], m[2])
}

// stringValue renders a decoded JSON value for display. Strings are returned as-is,
// absent and null values as "", anything else as compact JSON.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(bytes.TrimSpace(b))
	}
}
