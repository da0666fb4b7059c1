package normalizer

// Kind identifies which classification branch produced a Record.
type Kind int

const (
	// KindUnparsed is neither JSON nor a recognised plain-text line.
	KindUnparsed Kind = iota
	// KindJSON was parsed as a structured JSON log document.
	KindJSON
	// KindPlainText matched the platform "Got error" line format.
	KindPlainText
)

// String returns the kind's name as used in logs and events.
func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindPlainText:
		return "plain_text"
	default:
		return "unparsed"
	}
}

// Attachment colors.
const (
	ColorDanger    = "danger"
	ColorWarning   = "warning"
	ColorNeutral   = "#666666"
	ColorPlainText = "#000000"
	ColorUnparsed  = "#00ff00"
)

// UnparsedFooter is the footer of records that could not be classified.
const UnparsedFooter = "Could not parse"

// Record is the uniform display form of one log entry. Text, Title, Footer and Color
// map onto a chat attachment; the remaining fields carry branch provenance.
type Record struct {
	Kind   Kind
	Text   string
	Title  string
	Footer string
	Color  string

	// Level is the level_name of a JSON entry.
	Level string
	// Space and Service are the platform names from a plain-text entry.
	Space   string
	Service string
}

func jsonRecord(text, channel, env, level string) Record {
	return Record{
		Kind:   KindJSON,
		Text:   text,
		Title:  channel,
		Footer: env,
		Color:  levelColor(level),
		Level:  level,
	}
}

func plainTextRecord(text, space, service string) Record {
	return Record{
		Kind:    KindPlainText,
		Text:    text,
		Title:   service,
		Footer:  space,
		Color:   ColorPlainText,
		Space:   space,
		Service: service,
	}
}

func unparsedRecord(text string) Record {
	return Record{
		Kind:   KindUnparsed,
		Text:   text,
		Footer: UnparsedFooter,
		Color:  ColorUnparsed,
	}
}

// levelColor maps a monolog level_name to an attachment color.
func levelColor(level string) string {
	switch level {
	case "ERROR", "CRITICAL":
		return ColorDanger
	case "WARNING", "NOTICE":
		return ColorWarning
	default:
		return ColorNeutral
	}
}
