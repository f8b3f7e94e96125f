package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/notify"
	"anniversary_notifier/internal/domain/settings"
	domainTelegram "anniversary_notifier/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// FeedChannel posts a free-text announcement to the team feed chat.
type FeedChannel struct {
	client domainTelegram.Client
	chatID int64
	now    func() time.Time
}

func NewFeedChannel(client domainTelegram.Client, chatID int64) *FeedChannel {
	return &FeedChannel{client: client, chatID: chatID, now: time.Now}
}

func (f *FeedChannel) Name() string { return notify.ChannelFeed }

func (f *FeedChannel) Enabled(cfg *settings.Configuration) bool { return cfg.FeedEnabled }

func (f *FeedChannel) Send(_ context.Context, _ *settings.Configuration, d notify.Delivery) error {
	if f.client == nil || f.chatID == 0 {
		return fmt.Errorf("%w: feed chat is not configured", notify.ErrChannelMisconfigured)
	}
	if d.Contact == nil || d.Record == nil {
		return fmt.Errorf("feed post requires a contact and a record")
	}
	text := FeedMessage(d, f.now())
	return f.client.SendMessage(f.chatID, text, &telebot.SendOptions{DisableWebPagePreview: true})
}

// FeedMessage builds the announcement text. The age clause is left out when
// the birth date is unknown.
func FeedMessage(d notify.Delivery, now time.Time) string {
	occurrence := d.Record.OccurrenceDate
	var b strings.Builder
	if sameDay(now, occurrence) {
		fmt.Fprintf(&b, "🎉 Today is %s's birthday!", d.Contact.DisplayName)
	} else {
		fmt.Fprintf(&b, "🎂 %s has a birthday coming up on %s.", d.Contact.DisplayName, occurrence.Format("Monday, January 2"))
	}
	if d.Contact.Birthdate.Valid {
		if age := anniversary.Age(d.Contact.Birthdate.Time, occurrence); age > 0 {
			fmt.Fprintf(&b, " Turning %d.", age)
		}
	}
	return b.String()
}

// sameDay compares calendar fields; occurrence dates come back from the
// database as UTC midnight while now is local.
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
