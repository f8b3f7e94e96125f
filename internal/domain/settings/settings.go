package settings

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Default values written the first time the configuration is read.
const (
	DefaultWindowDays   = 7
	DefaultEmailEnabled = false
	DefaultFeedEnabled  = true
)

// Configuration is the singleton notifier configuration.
type Configuration struct {
	WindowDays   int      `json:"window_days"`
	EmailEnabled bool     `json:"email_enabled"`
	FeedEnabled  bool     `json:"feed_enabled"`
	TemplateRef  string   `json:"template_ref"`
	Recipients   []string `json:"recipients"`
}

// Defaults returns the configuration used when none has been stored yet.
func Defaults() *Configuration {
	return &Configuration{
		WindowDays:   DefaultWindowDays,
		EmailEnabled: DefaultEmailEnabled,
		FeedEnabled:  DefaultFeedEnabled,
		Recipients:   []string{},
	}
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	out.Recipients = slices.Clone(c.Recipients)
	return &out
}

// HasTemplate reports whether a non-blank template reference is set.
func (c *Configuration) HasTemplate() bool {
	return strings.TrimSpace(c.TemplateRef) != ""
}

// ActiveRecipients returns the non-blank recipient addresses, trimmed, in order.
func (c *Configuration) ActiveRecipients() []string {
	out := make([]string, 0, len(c.Recipients))
	for _, r := range c.Recipients {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Store reads and writes the singleton configuration.
// Get creates and returns the defaults when nothing is stored yet.
type Store interface {
	Get(ctx context.Context) (*Configuration, error)
	Save(ctx context.Context, cfg *Configuration) (*Configuration, error)
}

// Validate checks the invariants enforced at save time. Template and
// recipients are only checked when the message channel sends.
func (c *Configuration) Validate() error {
	if c.WindowDays < 1 {
		return fmt.Errorf("window days must be at least 1, got %d", c.WindowDays)
	}
	return nil
}
