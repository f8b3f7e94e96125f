// Package notify defines the notification channel capability used by the dispatcher.
package notify

import (
	"context"
	"errors"

	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/settings"
	"anniversary_notifier/internal/domain/tracking"
)

// Channel names.
const (
	ChannelMessage = "message"
	ChannelFeed    = "feed"
)

// ErrChannelMisconfigured is returned by a channel whose required settings are blank.
var ErrChannelMisconfigured = errors.New("channel misconfigured")

// Delivery pairs a tracking record with its resolved contact.
type Delivery struct {
	Record  *tracking.Record
	Contact *contact.Contact
}

// Channel is one independently toggleable delivery mechanism.
type Channel interface {
	Name() string
	Enabled(cfg *settings.Configuration) bool
	Send(ctx context.Context, cfg *settings.Configuration, d Delivery) error
}

// Summary is the end-of-run report.
type Summary struct {
	RunID          string
	CreatedCount   int
	ProcessedCount int
	SentCount      int
	ErrorCount     int
}

// SummarySender delivers the end-of-run summary to the configured recipients.
type SummarySender interface {
	SendSummary(ctx context.Context, cfg *settings.Configuration, s Summary) error
}
