package telegram

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/notify"
	"anniversary_notifier/internal/domain/settings"
	"anniversary_notifier/internal/domain/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeClient struct {
	chatID int64
	text   string
	err    error
}

func (f *fakeClient) SendMessage(chatID int64, text string, _ *telebot.SendOptions) error {
	f.chatID = chatID
	f.text = text
	return f.err
}

func feedDelivery(birth time.Time, occurrence time.Time) notify.Delivery {
	return notify.Delivery{
		Record: &tracking.Record{ID: 1, ContactID: 2, OccurrenceDate: occurrence},
		Contact: &contact.Contact{
			ID:          2,
			DisplayName: "Ann",
			Birthdate:   sql.NullTime{Time: birth, Valid: !birth.IsZero()},
		},
	}
}

func TestFeedMessage(t *testing.T) {
	birth := time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC)
	occurrence := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	today := FeedMessage(feedDelivery(birth, occurrence), time.Date(2025, time.January, 15, 9, 30, 0, 0, time.Local))
	assert.Equal(t, "🎉 Today is Ann's birthday! Turning 35.", today)

	ahead := FeedMessage(feedDelivery(birth, occurrence), time.Date(2025, time.January, 12, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, "🎂 Ann has a birthday coming up on Wednesday, January 15. Turning 35.", ahead)
}

func TestFeedMessageWithoutBirthdate(t *testing.T) {
	occurrence := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	got := FeedMessage(feedDelivery(time.Time{}, occurrence), occurrence)

	assert.Equal(t, "🎉 Today is Ann's birthday!", got)
}

func TestFeedChannelSend(t *testing.T) {
	client := &fakeClient{}
	ch := NewFeedChannel(client, -100123)
	d := feedDelivery(time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))

	require.NoError(t, ch.Send(context.Background(), settings.Defaults(), d))

	assert.Equal(t, int64(-100123), client.chatID)
	assert.Contains(t, client.text, "Ann")
}

func TestFeedChannelMisconfigured(t *testing.T) {
	ch := NewFeedChannel(&fakeClient{}, 0)

	err := ch.Send(context.Background(), settings.Defaults(), feedDelivery(time.Time{}, time.Now()))

	assert.ErrorIs(t, err, notify.ErrChannelMisconfigured)
}

func TestFeedChannelPropagatesSendError(t *testing.T) {
	boom := errors.New("telegram: Forbidden")
	ch := NewFeedChannel(&fakeClient{err: boom}, 1)

	err := ch.Send(context.Background(), settings.Defaults(), feedDelivery(time.Time{}, time.Now()))

	assert.ErrorIs(t, err, boom)
}

func TestFeedChannelEnabled(t *testing.T) {
	ch := NewFeedChannel(nil, 1)
	assert.True(t, ch.Enabled(&settings.Configuration{FeedEnabled: true}))
	assert.False(t, ch.Enabled(&settings.Configuration{}))
}
