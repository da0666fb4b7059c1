package normalizer

import (
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize_JSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Record
	}{
		{
			name: "error with env",
			raw:  `{"message":"x","channel":"c","level_name":"ERROR","context":{"env":"prod"}}`,
			want: Record{Kind: KindJSON, Text: "x", Title: "c", Footer: "prod", Color: ColorDanger, Level: "ERROR"},
		},
		{
			name: "critical",
			raw:  `{"message":"db down","channel":"donate","level_name":"CRITICAL","context":{"env":"staging"}}`,
			want: Record{Kind: KindJSON, Text: "db down", Title: "donate", Footer: "staging", Color: ColorDanger, Level: "CRITICAL"},
		},
		{
			name: "warning falls back to APPLICATION_ENV",
			raw:  `{"message":"slow","channel":"api","level_name":"WARNING","context":{"APPLICATION_ENV":"production"}}`,
			want: Record{Kind: KindJSON, Text: "slow", Title: "api", Footer: "production", Color: ColorWarning, Level: "WARNING"},
		},
		{
			name: "empty env falls back to APPLICATION_ENV",
			raw:  `{"message":"m","channel":"api","level_name":"NOTICE","context":{"env":"","APPLICATION_ENV":"test"}}`,
			want: Record{Kind: KindJSON, Text: "m", Title: "api", Footer: "test", Color: ColorWarning, Level: "NOTICE"},
		},
		{
			name: "info is neutral",
			raw:  `{"message":"hello","channel":"api","level_name":"INFO","context":{"env":"prod"}}`,
			want: Record{Kind: KindJSON, Text: "hello", Title: "api", Footer: "prod", Color: ColorNeutral, Level: "INFO"},
		},
		{
			name: "missing level and context",
			raw:  `{"message":"no level"}`,
			want: Record{Kind: KindJSON, Text: "no level", Color: ColorNeutral},
		},
		{
			name: "null context",
			raw:  `{"message":"m","channel":"c","context":null,"level_name":"ERROR"}`,
			want: Record{Kind: KindJSON, Text: "m", Title: "c", Color: ColorDanger, Level: "ERROR"},
		},
		{
			name: "non-string message",
			raw:  `{"message":42,"channel":"c","level_name":"ERROR"}`,
			want: Record{Kind: KindJSON, Text: "42", Title: "c", Color: ColorDanger, Level: "ERROR"},
		},
		{
			name: "leading whitespace",
			raw:  "  \n{\"message\":\"padded\"}",
			want: Record{Kind: KindJSON, Text: "padded", Color: ColorNeutral},
		},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_RepairedJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Record
	}{
		{
			name: "VCAP_APPLICATION stripped",
			raw:  `{"message":"m","VCAP_APPLICATION":"{"application_name":"donate","limits":{"mem":512}}","channel":"c","level_name":"ERROR","context":{"env":"prod"}}`,
			want: Record{Kind: KindJSON, Text: "m", Title: "c", Footer: "prod", Color: ColorDanger, Level: "ERROR"},
		},
		{
			name: "CF_INSTANCE_PORTS stripped",
			raw:  `{"message":"m","CF_INSTANCE_PORTS":"[{"external":61001,"internal":8080}]","channel":"c","level_name":"INFO"}`,
			want: Record{Kind: KindJSON, Text: "m", Title: "c", Color: ColorNeutral, Level: "INFO"},
		},
		{
			name: "FEATURES stripped",
			raw:  `{"message":"m","context":{"FEATURES":"{"giftaid":true}","env":"prod"},"level_name":"WARNING"}`,
			want: Record{Kind: KindJSON, Text: "m", Footer: "prod", Color: ColorWarning, Level: "WARNING"},
		},
		{
			name: "exception trace collapsed",
			raw:  `{"message":"m","context":{"exception_trace":"#0 /app/src/"Foo".php(12)","exception":"RuntimeException","env":"prod"},"level_name":"ERROR"}`,
			want: Record{Kind: KindJSON, Text: "m", Footer: "prod", Color: ColorDanger, Level: "ERROR"},
		},
		{
			name: "truncated tail closed",
			raw:  `{"message":"m","level_name":"ERROR","context":{"env":"prod","detail":"a very long line that Loggly cut...`,
			want: Record{Kind: KindJSON, Text: "m", Footer: "prod", Color: ColorDanger, Level: "ERROR"},
		},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_PlainText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Record
	}{
		{
			name: "single line",
			raw:  `app.space.service.sub: Got error 'boom'`,
			want: Record{Kind: KindPlainText, Text: "boom", Title: "service", Footer: "space", Color: ColorPlainText, Space: "space", Service: "service"},
		},
		{
			name: "platform multi-line shape",
			raw:  "2018-03-01T10:00:00.00+0000 [APP/PROC/WEB/0] ERR cr.prod.donate.web: Got error 'PHP Fatal error\nStack trace\n'\n",
			want: Record{Kind: KindPlainText, Text: "PHP Fatal error\nStack trace", Title: "donate", Footer: "prod", Color: ColorPlainText, Space: "prod", Service: "donate"},
		},
		{
			name: "message containing a quote",
			raw:  `app.space.service: Got error 'it's broken'`,
			want: Record{Kind: KindPlainText, Text: "it's broken", Title: "service", Footer: "space", Color: ColorPlainText, Space: "space", Service: "service"},
		},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalize_Unparsed(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
	}{
		{name: "random garbage", raw: "random garbage", wantText: "random garbage"},
		{name: "empty", raw: "", wantText: ""},
		{name: "broken json", raw: `{"message": broken`, wantText: `{"message": broken`},
		{name: "json scalar", raw: "42", wantText: "42"},
		{name: "json array", raw: `["a","b"]`, wantText: `["a","b"]`},
		{
			// The tail repair only produces valid JSON when the cut happened inside a
			// nested object; otherwise the repaired text is reported as-is.
			name:     "truncated top level",
			raw:      `{"message":"long","channel":"app","extra":"abc...`,
			wantText: `{"message":"long","channel":"app"}}`,
		},
	}

	n := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.raw)
			want := Record{Kind: KindUnparsed, Text: tt.wantText, Footer: UnparsedFooter, Color: ColorUnparsed}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRepair_ExceptionTraceStopsAtFirstException(t *testing.T) {
	n := New()
	raw := `{"exception_trace":"t","exception":"A","exception_class":"B"}`

	got := n.Repair(raw)
	want := `{"exception":"A","exception_class":"B"}`
	if got != want {
		t.Errorf("Repair() = %q, want %q", got, want)
	}
}

func TestRepair_Idempotent(t *testing.T) {
	inputs := []string{
		`{"message":"x","channel":"c","level_name":"ERROR","context":{"env":"prod"}}`,
		`app.space.service.sub: Got error 'boom'`,
		"random garbage",
		"",
		`{"message":"m","VCAP_APPLICATION":"{"a":1}","channel":"c"}`,
		`{"message":"m","context":{"env":"prod","detail":"cut...`,
	}

	n := New()
	for _, in := range inputs {
		once := n.Repair(in)
		twice := n.Repair(once)
		if once != twice {
			t.Errorf("Repair not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestRepair_NoDefectsUnchanged(t *testing.T) {
	n := New()
	in := `{"message":"clean","channel":"c","context":{"env":"prod"}}`
	if got := n.Repair(in); got != in {
		t.Errorf("Repair() = %q, want input unchanged", got)
	}
}

func TestNormalize_AlwaysProducesColor(t *testing.T) {
	inputs := []string{"", "{", "}", "null", "true", "...", `","...`, "%%%%", "\n\n", `{"message":null}`}

	n := New()
	for _, in := range inputs {
		rec := n.Normalize(in)
		if rec.Color == "" {
			t.Errorf("Normalize(%q) returned a record without color: %+v", in, rec)
		}
	}
}

func TestRule_ApplyReplacesFirstMatchOnly(t *testing.T) {
	rule := Rule{Name: "digits", Pattern: regexp.MustCompile(`\d+`), Replacement: "$1"}

	if got := rule.Apply("a1b22c333"); got != "a$1b22c333" {
		t.Errorf("Apply() = %q, want %q", got, "a$1b22c333")
	}
	if got := rule.Apply("no digits"); got != "no digits" {
		t.Errorf("Apply() = %q, want input unchanged", got)
	}
}

func TestNew_CustomRules(t *testing.T) {
	rule := Rule{Name: "strip_prefix", Pattern: regexp.MustCompile(`^LOGGLY: `), Replacement: ""}
	n := New(rule)

	if len(n.Rules()) != 1 {
		t.Fatalf("Rules() len = %d, want 1", len(n.Rules()))
	}

	got := n.Normalize(`LOGGLY: {"message":"m"}`)
	if got.Kind != KindJSON || got.Text != "m" {
		t.Errorf("Normalize() = %+v, want JSON record with text m", got)
	}
}

func TestDefaultRules_Order(t *testing.T) {
	want := []string{
		"strip_vcap_application",
		"strip_cf_instance_ports",
		"strip_features",
		"collapse_exception_trace",
		"close_truncated_tail",
	}

	rules := DefaultRules()
	if len(rules) != len(want) {
		t.Fatalf("DefaultRules() len = %d, want %d", len(rules), len(want))
	}
	for i, rule := range rules {
		if rule.Name != want[i] {
			t.Errorf("DefaultRules()[%d] = %s, want %s", i, rule.Name, want[i])
		}
	}
}

func TestKind_String(t *testing.T) {
	tests := map[Kind]string{
		KindJSON:      "json",
		KindPlainText: "plain_text",
		KindUnparsed:  "unparsed",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
