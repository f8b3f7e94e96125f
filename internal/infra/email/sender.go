package email

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ErrTransportNotConfigured is returned when no SMTP URL was configured.
var ErrTransportNotConfigured = errors.New("smtp transport not configured")

// Sender delivers one message to a list of addresses.
type Sender interface {
	Send(subject, body string, to []string) error
}

// ShoutrrrSender sends mail through a shoutrrr smtp:// URL. The recipient list
// comes from the notifier configuration, so the to= parameter is set per send.
type ShoutrrrSender struct {
	baseURL string
	timeout time.Duration
}

func NewShoutrrrSender(baseURL string, timeout time.Duration) *ShoutrrrSender {
	return &ShoutrrrSender{baseURL: strings.TrimSpace(baseURL), timeout: timeout}
}

func (s *ShoutrrrSender) Send(subject, body string, to []string) error {
	if s.baseURL == "" {
		return ErrTransportNotConfigured
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	target, err := withRecipients(s.baseURL, to)
	if err != nil {
		return err
	}

	sender, err := shoutrrr.CreateSender(target)
	if err != nil {
		// the raw error may echo the URL including credentials
		return fmt.Errorf("invalid smtp url: %s", redact(err.Error(), s.baseURL))
	}
	if s.timeout > 0 {
		sender.Timeout = s.timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	params := stypes.Params{}
	if subject != "" {
		params.SetTitle(subject)
	}
	for _, e := range sender.Send(body, &params) {
		if e != nil {
			return fmt.Errorf("smtp send: %s", redact(e.Error(), target))
		}
	}
	return nil
}

func withRecipients(base string, to []string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid smtp url")
	}
	q := u.Query()
	q.Set("to", strings.Join(to, ","))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func redact(msg, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return msg
	}
	if pw, ok := u.User.Password(); ok && pw != "" {
		msg = strings.ReplaceAll(msg, pw, "****")
	}
	return msg
}
