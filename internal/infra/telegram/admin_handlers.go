package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"anniversary_notifier/internal/app"
	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const unauthorizedReply = "Error: you are not allowed to use this command."

const helpText = `Available commands:
/stats - notification statistics
/upcoming - contacts with an anniversary inside the window
/run_now - start a notification run
/schedules - list scheduled daily runs
/help - show this message`

// AdminService is the part of the admin surface exposed over Telegram.
type AdminService interface {
	GetStats(ctx context.Context) (*app.Stats, error)
	GetUpcomingContacts(ctx context.Context) ([]*contact.Contact, error)
	RunNow(ctx context.Context) (string, error)
	ListScheduledJobs() []schedule.JobInfo
}

// AdminHandlers serves admin commands to the configured admin user only.
type AdminHandlers struct {
	ctx             context.Context
	service         AdminService
	adminTelegramID int64
	logger          *logrus.Entry
	now             func() time.Time
}

func NewAdminHandlers(ctx context.Context, service AdminService, adminTelegramID int64, baseLogger *logrus.Entry) *AdminHandlers {
	return &AdminHandlers{
		ctx:             ctx,
		service:         service,
		adminTelegramID: adminTelegramID,
		logger:          baseLogger,
		now:             time.Now,
	}
}

// RegisterAdminHandlers registers handlers for admin commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, service AdminService, adminTelegramID int64, baseLogger *logrus.Entry) {
	h := NewAdminHandlers(ctx, service, adminTelegramID, baseLogger)
	b.Handle("/start", h.handleHelp)
	b.Handle("/help", h.handleHelp)
	b.Handle("/stats", h.handleStats)
	b.Handle("/upcoming", h.handleUpcoming)
	b.Handle("/run_now", h.handleRunNow)
	b.Handle("/schedules", h.handleSchedules)
}

// authorize logs the command and reports whether the sender is the admin.
func (h *AdminHandlers) authorize(c telebot.Context, command string) (*logrus.Entry, bool) {
	var senderID int64
	if c.Sender() != nil {
		senderID = c.Sender().ID
	}
	handlerLogger := h.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": senderID,
	})
	handlerLogger.Info("Command received")

	if h.adminTelegramID == 0 || senderID != h.adminTelegramID {
		handlerLogger.Warn("Unauthorized access attempt")
		return handlerLogger, false
	}
	return handlerLogger, true
}

func (h *AdminHandlers) handleHelp(c telebot.Context) error {
	if _, ok := h.authorize(c, "/help"); !ok {
		return c.Send(unauthorizedReply)
	}
	return c.Send(helpText)
}

func (h *AdminHandlers) handleStats(c telebot.Context) error {
	handlerLogger, ok := h.authorize(c, "/stats")
	if !ok {
		return c.Send(unauthorizedReply)
	}
	stats, err := h.service.GetStats(h.ctx)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to get stats")
		return c.Send(fmt.Sprintf("Failed to load statistics: %s", err.Error()))
	}
	return c.Send(FormatStats(stats))
}

func (h *AdminHandlers) handleUpcoming(c telebot.Context) error {
	handlerLogger, ok := h.authorize(c, "/upcoming")
	if !ok {
		return c.Send(unauthorizedReply)
	}
	contacts, err := h.service.GetUpcomingContacts(h.ctx)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to get upcoming contacts")
		return c.Send(fmt.Sprintf("Failed to load upcoming anniversaries: %s", err.Error()))
	}
	handlerLogger.WithField("count", len(contacts)).Info("Upcoming contacts listed")
	return c.Send(FormatUpcoming(contacts, h.now()))
}

func (h *AdminHandlers) handleRunNow(c telebot.Context) error {
	handlerLogger, ok := h.authorize(c, "/run_now")
	if !ok {
		return c.Send(unauthorizedReply)
	}
	runID, err := h.service.RunNow(h.ctx)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to enqueue run")
		return c.Send(fmt.Sprintf("Failed to start a run: %s", err.Error()))
	}
	handlerLogger.WithField("run_id", runID).Info("Run enqueued")
	return c.Send(fmt.Sprintf("Run %s queued.", runID))
}

func (h *AdminHandlers) handleSchedules(c telebot.Context) error {
	if _, ok := h.authorize(c, "/schedules"); !ok {
		return c.Send(unauthorizedReply)
	}
	return c.Send(FormatSchedules(h.service.ListScheduledJobs()))
}

func FormatStats(s *app.Stats) string {
	return fmt.Sprintf("Upcoming: %d\nSent today: %d\nSent this month: %d\nTotal tracked: %d",
		s.UpcomingCount, s.SentToday, s.SentThisMonth, s.TotalTracked)
}

// FormatUpcoming lists contacts by next occurrence as they were returned.
func FormatUpcoming(contacts []*contact.Contact, now time.Time) string {
	if len(contacts) == 0 {
		return "No upcoming anniversaries."
	}
	var response strings.Builder
	response.WriteString("--- Upcoming anniversaries ---\n")
	for _, c := range contacts {
		next, err := anniversary.NextOccurrence(c.Birthdate.Time, now)
		if err != nil {
			continue
		}
		fmt.Fprintf(&response, "%s: %s", c.DisplayName, next.Format("2006-01-02"))
		if age := anniversary.Age(c.Birthdate.Time, next); age > 0 {
			fmt.Fprintf(&response, " (turning %d)", age)
		}
		response.WriteString("\n")
	}
	return strings.TrimRight(response.String(), "\n")
}

func FormatSchedules(jobs []schedule.JobInfo) string {
	if len(jobs) == 0 {
		return "No scheduled runs."
	}
	var response strings.Builder
	response.WriteString("--- Scheduled runs ---\n")
	for _, j := range jobs {
		fmt.Fprintf(&response, "%s [%s] %s, next: %s, id: %s\n",
			j.Name, j.State, j.CronExpr, j.NextFireTime.Format("2006-01-02 15:04"), j.ID)
	}
	return strings.TrimRight(response.String(), "\n")
}
