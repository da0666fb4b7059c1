// Package slack provides Slack notification sending via the Web API chat.postMessage method.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	slackapi "github.com/slack-go/slack"

	"github.com/comicrelief/loggly-slack-alerts/internal/sender/payload"
)

const (
	// DefaultAPIURL is the Slack Web API base URL.
	DefaultAPIURL = slackapi.APIURL

	defaultHTTPTimeout = 30 * time.Second
)

// Credentials are the values required to post a message.
type Credentials struct {
	Token    string
	Channel  string
	Username string
}

// Complete reports whether every credential is set.
func (c Credentials) Complete() bool {
	return c.Token != "" && c.Channel != "" && c.Username != ""
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAPIURL points the client at a different Web API base URL. The URL must end in "/".
func WithAPIURL(url string) Option {
	return func(n *Notifier) {
		if url != "" {
			n.apiURL = url
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(n *Notifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// Notifier posts alert messages to a Slack channel. With incomplete credentials every
// Notify call is skipped with a warning.
type Notifier struct {
	creds      Credentials
	apiURL     string
	httpClient *http.Client
	client     *slackapi.Client
}

// NewNotifier creates a Slack notifier.
func NewNotifier(creds Credentials, opts ...Option) *Notifier {
	n := &Notifier{
		creds:      creds,
		apiURL:     DefaultAPIURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(n)
	}

	if creds.Complete() {
		n.client = slackapi.New(creds.Token,
			slackapi.OptionAPIURL(n.apiURL),
			slackapi.OptionHTTPClient(n.httpClient),
		)
	}
	return n
}

// Type returns the delivery type this notifier handles.
func (n *Notifier) Type() string {
	return "slack"
}

// Configured reports whether messages will actually be sent.
func (n *Notifier) Configured() bool {
	return n.client != nil
}

// Notify posts message with one attachment per log record.
func (n *Notifier) Notify(ctx context.Context, message string, attachments []payload.Attachment) error {
	if n.client == nil {
		slog.WarnContext(ctx, "Env variables SLACK_TOKEN, SLACK_CHANNEL and SLACK_USERNAME must be set, Slack message sending skipped")
		return nil
	}

	_, ts, err := n.client.PostMessageContext(ctx, n.creds.Channel,
		slackapi.MsgOptionText(message, false),
		slackapi.MsgOptionUsername(n.creds.Username),
		slackapi.MsgOptionAttachments(toSlackAttachments(attachments)...),
	)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to send Slack notification",
			"channel", n.creds.Channel,
			"attachments", len(attachments),
			"error", err,
		)
		return fmt.Errorf("failed to post Slack message to %s: %w", n.creds.Channel, err)
	}

	slog.InfoContext(ctx, "Successfully sent Slack notification",
		"channel", n.creds.Channel,
		"attachments", len(attachments),
		"ts", ts,
	)
	return nil
}

func toSlackAttachments(attachments []payload.Attachment) []slackapi.Attachment {
	out := make([]slackapi.Attachment, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, slackapi.Attachment{
			Color:  a.Color,
			Title:  a.Title,
			Text:   a.Text,
			Footer: a.Footer,
		})
	}
	return out
}
