package email

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/notify"
)

// Template is a stored email template. Subject and Body use {placeholder} tokens.
type Template struct {
	Ref     string
	Subject string
	Body    string
}

// TemplateStore resolves a template reference.
type TemplateStore interface {
	GetTemplate(ctx context.Context, ref string) (*Template, error)
}

// RenderTemplate replaces every {key} in template with its value in a single
// pass; substituted values are never scanned for tokens again.
func RenderTemplate(template string, data map[string]string) string {
	pairs := make([]string, 0, len(data)*2)
	for _, k := range slices.Sorted(maps.Keys(data)) {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// placeholders builds the token map for one delivery.
func placeholders(d notify.Delivery) map[string]string {
	data := map[string]string{
		"name":  "",
		"date":  "",
		"age":   "",
		"email": "",
		"phone": "",
	}
	if d.Record != nil {
		data["date"] = d.Record.OccurrenceDate.Format(time.DateOnly)
	}
	if c := d.Contact; c != nil {
		data["name"] = c.DisplayName
		data["email"] = c.Email.String
		data["phone"] = c.Phone.String
		if c.Birthdate.Valid && d.Record != nil {
			if age := anniversary.Age(c.Birthdate.Time, d.Record.OccurrenceDate); age > 0 {
				data["age"] = strconv.Itoa(age)
			}
		}
	}
	return data
}
