// Package generator builds synthetic Loggly alert envelopes for exercising the webhook.
// Hits are drawn from a weighted distribution of entry shapes, covering well-formed JSON,
// the known Loggly escaping defects, platform plain-text errors and unparseable noise.
// A non-zero seed makes the output reproducible.
package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/comicrelief/loggly-slack-alerts/internal/events"
)

// Entry shapes understood by ParseDistribution.
const (
	ShapeJSON      = "json"
	ShapeVCAP      = "vcap"
	ShapeException = "exception"
	ShapeTruncated = "truncated"
	ShapePlainText = "plain_text"
	ShapeGarbage   = "garbage"
	// ShapeRepeat re-sends a hit generated earlier, which the dedup filter should drop.
	ShapeRepeat = "repeat"
)

// DefaultShapeDist is the shape mix used when none is configured.
const DefaultShapeDist = "json:35,vcap:10,exception:10,truncated:10,plain_text:20,garbage:10,repeat:5"

// DefaultHitsPerAlert matches a typical Loggly alert with a few recent hits.
const DefaultHitsPerAlert = 5

// maxHistory bounds how many earlier hits ShapeRepeat can pick from.
const maxHistory = 100

// timeLayout is the way Loggly renders the alert window.
const timeLayout = "Jan 2 15:04:05"

var knownShapes = map[string]bool{
	ShapeJSON:      true,
	ShapeVCAP:      true,
	ShapeException: true,
	ShapeTruncated: true,
	ShapePlainText: true,
	ShapeGarbage:   true,
	ShapeRepeat:    true,
}

var (
	alertNames = []string{"Donate errors", "Payments 5xx", "Giftaid failures", "Contact form errors"}
	channels   = []string{"donate", "payments", "giftaid", "contact"}
	levels     = []string{"ERROR", "CRITICAL", "WARNING", "INFO", "DEBUG"}
	envs       = []string{"production", "staging", "sandbox"}
	spaces     = []string{"production", "staging"}
	services   = []string{"donate-api", "payments-worker", "giftaid-api", "contact-service"}
	messages   = []string{
		"Payment gateway timeout",
		"Card declined by issuer",
		"Postcode lookup failed",
		"Queue consumer lost connection",
		"Unexpected response from CRM",
	}
	garbage = []string{
		"upstream connect error or disconnect/reset before headers",
		"panic: runtime error: index out of range",
		"Killed",
		"<html><body>502 Bad Gateway</body></html>",
	}
)

// Config holds the generator parameters.
type Config struct {
	Seed         int64
	ShapeDist    string
	HitsPerAlert int
}

// Validate checks the hit count and the shape distribution.
func (c *Config) Validate() error {
	if c.HitsPerAlert < 0 {
		return fmt.Errorf("hits cannot be negative")
	}
	if _, err := parseShapes(c.ShapeDist); err != nil {
		return fmt.Errorf("invalid shape-dist: %w", err)
	}
	return nil
}

// ParseDistribution parses a weighted distribution string into a map of values to percentages.
//
// Format: "KEY1:PERCENT1,KEY2:PERCENT2,..." where percentages must sum to 100.
//
// Example: "json:60,plain_text:30,garbage:10"
func ParseDistribution(distStr string) (map[string]int, error) {
	result := make(map[string]int)

	if distStr == "" {
		return result, fmt.Errorf("distribution string cannot be empty")
	}

	totalPercent := 0
	for _, part := range strings.Split(distStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.Split(part, ":")
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid distribution format: %s (expected KEY:PERCENT)", part)
		}

		key := strings.TrimSpace(kv[0])
		var percent int
		if _, err := fmt.Sscanf(strings.TrimSpace(kv[1]), "%d", &percent); err != nil {
			return nil, fmt.Errorf("invalid percentage in %s: %w", part, err)
		}
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("percentage must be 0-100, got %d in %s", percent, part)
		}

		result[key] = percent
		totalPercent += percent
	}

	if totalPercent != 100 {
		return nil, fmt.Errorf("distribution percentages must sum to 100, got %d", totalPercent)
	}
	return result, nil
}

// weightedValue is one value of a weighted distribution.
type weightedValue struct {
	value  string
	weight int
}

// parseShapes parses a shape distribution into a slice sorted by shape name, so a seeded
// generator does not depend on map iteration order.
func parseShapes(distStr string) ([]weightedValue, error) {
	distMap, err := ParseDistribution(distStr)
	if err != nil {
		return nil, err
	}

	result := make([]weightedValue, 0, len(distMap))
	for value, weight := range distMap {
		if !knownShapes[value] {
			return nil, fmt.Errorf("unknown shape %q", value)
		}
		result = append(result, weightedValue{value: value, weight: weight})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].value < result[j].value })
	return result, nil
}

// Generator creates alert envelopes according to the configured shape distribution.
// It is not safe for concurrent use.
type Generator struct {
	rng     *rand.Rand
	shapes  []weightedValue
	hits    int
	history []string
	now     func() time.Time
}

// New creates a generator. An empty ShapeDist uses DefaultShapeDist and a zero
// HitsPerAlert uses DefaultHitsPerAlert.
func New(cfg Config) (*Generator, error) {
	if cfg.ShapeDist == "" {
		cfg.ShapeDist = DefaultShapeDist
	}
	if cfg.HitsPerAlert == 0 {
		cfg.HitsPerAlert = DefaultHitsPerAlert
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shapes, _ := parseShapes(cfg.ShapeDist)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		shapes: shapes,
		hits:   cfg.HitsPerAlert,
		now:    time.Now,
	}, nil
}

// Generate creates a new alert envelope.
func (g *Generator) Generate() *events.AlertEnvelope {
	end := g.now()
	start := end.Add(-5 * time.Minute)
	name := g.selectFrom(alertNames)

	env := &events.AlertEnvelope{
		AlertName:  name,
		SearchLink: fmt.Sprintf("https://comicrelief.loggly.com/search#terms=%s&from=%d", strings.ReplaceAll(name, " ", "+"), start.Unix()),
		StartTime:  start.Format(timeLayout),
		EndTime:    end.Format(timeLayout),
		RecentHits: make([]events.RawLogEntry, 0, g.hits),
	}
	for i := 0; i < g.hits; i++ {
		env.RecentHits = append(env.RecentHits, events.RawLogEntry(g.Hit(g.selectWeighted(g.shapes))))
	}
	return env
}

// Hit renders one raw log entry of the given shape. Unknown shapes render as garbage.
func (g *Generator) Hit(shape string) string {
	if shape == ShapeRepeat {
		if len(g.history) == 0 {
			shape = ShapeJSON
		} else {
			return g.history[g.rng.Intn(len(g.history))]
		}
	}

	var hit string
	switch shape {
	case ShapeJSON:
		hit = g.jsonHit()
	case ShapeVCAP:
		hit = g.vcapHit()
	case ShapeException:
		hit = g.exceptionHit()
	case ShapeTruncated:
		hit = g.truncatedHit()
	case ShapePlainText:
		hit = g.plainTextHit()
	default:
		hit = fmt.Sprintf("%s [%s]", g.selectFrom(garbage), g.ref())
	}

	g.remember(hit)
	return hit
}

type logContext struct {
	Env     string `json:"env"`
	Request string `json:"request,omitempty"`
}

// logDocument mirrors the structured entries the monitored PHP services emit. Context
// stays last so the repair patterns see the same field order as production entries.
type logDocument struct {
	Message        string     `json:"message"`
	ExceptionTrace string     `json:"exception_trace,omitempty"`
	Exception      string     `json:"exception,omitempty"`
	Channel        string     `json:"channel"`
	LevelName      string     `json:"level_name"`
	Context        logContext `json:"context"`
}

func (g *Generator) document() logDocument {
	return logDocument{
		Message:   fmt.Sprintf("%s (ref %s)", g.selectFrom(messages), g.ref()),
		Channel:   g.selectFrom(channels),
		LevelName: g.selectFrom(levels),
		Context:   logContext{Env: g.selectFrom(envs)},
	}
}

func (g *Generator) marshal(doc logDocument) string {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf(`{"message":"marshal failed: %s"}`, g.ref())
	}
	return string(b)
}

func (g *Generator) jsonHit() string {
	return g.marshal(g.document())
}

// vcapHit embeds the application blob unescaped, as the Cloud Foundry log drain does.
func (g *Generator) vcapHit() string {
	doc := g.marshal(g.document())
	blob := fmt.Sprintf(`"VCAP_APPLICATION":"{"application_id":"%s","limits":{"mem":512}}",`, g.ref())
	return "{" + blob + doc[1:]
}

// exceptionHit carries a stack trace with raw quotes and newlines.
func (g *Generator) exceptionHit() string {
	doc := g.document()
	doc.ExceptionTrace = "TRACE"
	doc.Exception = "RuntimeException"
	trace := "#0 /app/src/Gateway/Client.php(88): Client->send(\"POST\")\n#1 {main}"
	return strings.Replace(g.marshal(doc), `"TRACE"`, `"`+trace+`"`, 1)
}

// truncatedHit is cut inside the last context field and suffixed with "...".
func (g *Generator) truncatedHit() string {
	doc := g.document()
	doc.Context.Request = "GET /donate/checkout/step-2/confirmation"
	full := g.marshal(doc)

	cut := strings.Index(full, `"request":"`)
	if cut < 0 {
		return full
	}
	cut += len(`"request":"GET /donate/`)
	return full[:cut] + "..."
}

// plainTextHit follows the platform "<org>.<space>.<service>: Got error '<message>'" line.
func (g *Generator) plainTextHit() string {
	return fmt.Sprintf("[APP/PROC/WEB/0] ERR comicrelief.%s.%s: Got error '%s (ref %s)\n'",
		g.selectFrom(spaces), g.selectFrom(services), g.selectFrom(messages), g.ref())
}

// ref returns a short identifier drawn from the generator's RNG so hits stay distinct.
func (g *Generator) ref() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		return fmt.Sprintf("%08x", g.rng.Uint32())
	}
	return id.String()[:8]
}

func (g *Generator) remember(hit string) {
	if len(g.history) == maxHistory {
		g.history = g.history[1:]
	}
	g.history = append(g.history, hit)
}

// selectWeighted selects a value from a weighted distribution using cumulative probability.
func (g *Generator) selectWeighted(choices []weightedValue) string {
	if len(choices) == 0 {
		return ShapeJSON
	}

	total := 0
	for _, c := range choices {
		total += c.weight
	}
	if total == 0 {
		return choices[0].value
	}

	r := g.rng.Intn(total)
	cumulative := 0
	for _, c := range choices {
		cumulative += c.weight
		if r < cumulative {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}

// selectFrom randomly selects a value from a slice of strings with uniform probability.
func (g *Generator) selectFrom(choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[g.rng.Intn(len(choices))]
}
