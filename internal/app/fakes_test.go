package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/notify"
	"anniversary_notifier/internal/domain/schedule"
	"anniversary_notifier/internal/domain/settings"
	"anniversary_notifier/internal/domain/tracking"
	"anniversary_notifier/internal/infra/queue"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func nullLogger() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func newContact(id int64, name string, birth time.Time) *contact.Contact {
	return &contact.Contact{
		ID:          id,
		DisplayName: name,
		Birthdate:   sql.NullTime{Time: birth, Valid: !birth.IsZero()},
		Email:       sql.NullString{String: name + "@example.com", Valid: true},
	}
}

// fakeDirectory answers like the database: birthdate present and day of year
// inside one of the ranges.
type fakeDirectory struct {
	contacts []*contact.Contact
	raw      []*contact.Contact // returned verbatim by FindByDayOfYear when set
	findErr  error
}

func (f *fakeDirectory) FindByDayOfYear(_ context.Context, ranges []anniversary.DayRange) ([]*contact.Contact, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if f.raw != nil {
		return f.raw, nil
	}
	out := make([]*contact.Contact, 0)
	for _, c := range f.contacts {
		if c.Birthdate.Valid && anniversary.InAny(ranges, c.DayOfYear()) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDirectory) GetByIDs(_ context.Context, ids []int64) ([]*contact.Contact, error) {
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]*contact.Contact, 0, len(ids))
	for _, c := range f.contacts {
		if _, ok := want[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeTracking keeps records in memory and stamps CreatedAt with now().
type fakeTracking struct {
	records       []*tracking.Record
	nextID        int64
	now           func() time.Time
	lookups       int
	markSentCalls int
	bulkErr       error
	markSentErr   func(call int) error
}

func newFakeTracking(now func() time.Time) *fakeTracking {
	return &fakeTracking{now: now}
}

func (f *fakeTracking) BulkCreate(_ context.Context, records []*tracking.Record) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	for _, rec := range records {
		f.nextID++
		rec.ID = f.nextID
		rec.CreatedAt = f.now()
		stored := *rec
		f.records = append(f.records, &stored)
	}
	return nil
}

func (f *fakeTracking) ContactIDsTrackedBetween(_ context.Context, from, to time.Time, ids []int64) (map[int64]struct{}, error) {
	f.lookups++
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make(map[int64]struct{})
	for _, rec := range f.records {
		if _, ok := want[rec.ContactID]; ok && !rec.CreatedAt.Before(from) && rec.CreatedAt.Before(to) {
			out[rec.ContactID] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeTracking) ListUnsentIDs(context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	for _, rec := range f.records {
		if !rec.Sent {
			ids = append(ids, rec.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeTracking) GetByIDs(_ context.Context, ids []int64) ([]*tracking.Record, error) {
	out := make([]*tracking.Record, 0, len(ids))
	for _, id := range ids {
		if rec := f.byID(id); rec != nil {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

// MarkSent fails on a cancelled context the way database/sql does.
func (f *fakeTracking) MarkSent(ctx context.Context, ids []int64, at time.Time) error {
	f.markSentCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.markSentErr != nil {
		if err := f.markSentErr(f.markSentCalls); err != nil {
			return err
		}
	}
	for _, id := range ids {
		if rec := f.byID(id); rec != nil {
			rec.Sent = true
			rec.SentAt = sql.NullTime{Time: at, Valid: true}
		}
	}
	return nil
}

func (f *fakeTracking) CountSentSince(_ context.Context, since time.Time) (int, error) {
	n := 0
	for _, rec := range f.records {
		if rec.Sent && rec.SentAt.Valid && !rec.SentAt.Time.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeTracking) CountAll(context.Context) (int, error) {
	return len(f.records), nil
}

func (f *fakeTracking) byID(id int64) *tracking.Record {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

type fakeSettings struct {
	cfg     *settings.Configuration
	getErr  error
	gets    int
	saves   int
	saveErr error
}

func (f *fakeSettings) Get(context.Context) (*settings.Configuration, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.cfg.Clone(), nil
}

func (f *fakeSettings) Save(_ context.Context, cfg *settings.Configuration) (*settings.Configuration, error) {
	f.saves++
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.cfg = cfg.Clone()
	return cfg.Clone(), nil
}

// fakeChannel records the contacts it was asked to notify.
type fakeChannel struct {
	name    string
	enabled func(*settings.Configuration) bool
	err     error
	sent    []int64
	onSend  func()
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Enabled(cfg *settings.Configuration) bool {
	if f.enabled == nil {
		return true
	}
	return f.enabled(cfg)
}

func (f *fakeChannel) Send(_ context.Context, _ *settings.Configuration, d notify.Delivery) error {
	f.sent = append(f.sent, d.Contact.ID)
	if f.onSend != nil {
		f.onSend()
	}
	return f.err
}

type fakeSummarySender struct {
	summaries []notify.Summary
	err       error
}

func (f *fakeSummarySender) SendSummary(_ context.Context, _ *settings.Configuration, s notify.Summary) error {
	f.summaries = append(f.summaries, s)
	return f.err
}

type fakeEnqueuer struct {
	requests []queue.RunRequest
	err      error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, req queue.RunRequest) error {
	if f.err != nil {
		return f.err
	}
	f.requests = append(f.requests, req)
	return nil
}

type fakeRegistrar struct {
	jobs map[string]schedule.JobInfo
	err  error
}

func (f *fakeRegistrar) ScheduleDaily(_ context.Context, name string, hour, minute int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.jobs == nil {
		f.jobs = make(map[string]schedule.JobInfo)
	}
	id := name
	f.jobs[id] = schedule.JobInfo{ID: id, Name: name}
	return id, nil
}

func (f *fakeRegistrar) DeleteSchedule(_ context.Context, id string) error {
	if _, ok := f.jobs[id]; !ok {
		return apperrors.NewScheduleNotFound(id)
	}
	delete(f.jobs, id)
	return nil
}

func (f *fakeRegistrar) List() []schedule.JobInfo {
	out := make([]schedule.JobInfo, 0, len(f.jobs))
	for _, j := range f.jobs {
		out = append(out, j)
	}
	return out
}

var errBoom = errors.New("boom")
