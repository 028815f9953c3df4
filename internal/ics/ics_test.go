package ics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"calplan/internal/model"
)

type memSink struct {
	templates []model.Template
}

func (m *memSink) Has(id string) bool {
	for _, t := range m.templates {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (m *memSink) Add(t model.Template) string {
	m.templates = append(m.templates, t)
	return t.ID
}

func (m *memSink) get(id string) (model.Template, bool) {
	for _, t := range m.templates {
		if t.ID == id {
			return t, true
		}
	}
	return model.Template{}, false
}

func calendar(lines ...string) string {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return strings.Join(all, "\r\n")
}

func TestExportImportRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	var templates []model.Template
	for i, rec := range model.Recurrences {
		s := start.AddDate(0, 0, i)
		templates = append(templates, model.Template{
			ID:         "id-" + rec.String(),
			Title:      "event " + rec.String(),
			Start:      s,
			End:        s.Add(90 * time.Minute),
			Color:      []string{"", "red", "blue", "green", "cyan", "gray"}[i],
			Recurrence: rec,
		})
	}

	var buf bytes.Buffer
	if err := Export(&buf, templates, start); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	sink := &memSink{}
	res, err := Import(&buf, sink)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if res.Added != len(templates) {
		t.Fatalf("Import() = %+v, want %d added", res, len(templates))
	}
	for _, want := range templates {
		got, ok := sink.get(want.ID)
		if !ok {
			t.Errorf("template %s missing after round trip", want.ID)
			continue
		}
		if got.Title != want.Title || !got.Start.Equal(want.Start) || !got.End.Equal(want.End) ||
			got.Color != want.Color || got.Recurrence != want.Recurrence {
			t.Errorf("round trip %s = %+v, want %+v", want.ID, got, want)
		}
	}
}

func TestImportMapping(t *testing.T) {
	body := calendar(
		"BEGIN:VEVENT", "UID:daily", "SUMMARY:Standup", "COLOR:blue",
		"DTSTART:20240101T090000Z", "DTEND:20240101T093000Z", "RRULE:FREQ=DAILY", "END:VEVENT",

		"BEGIN:VEVENT", "UID:biweekly", "SUMMARY:Review",
		"DTSTART:20240105T110000Z", "DTEND:20240105T120000Z", "RRULE:FREQ=WEEKLY;INTERVAL=2", "END:VEVENT",

		"BEGIN:VEVENT", "UID:byday", "SUMMARY:Gym",
		"DTSTART:20240101T180000Z", "DTEND:20240101T190000Z", "RRULE:FREQ=WEEKLY;BYDAY=MO,WE", "END:VEVENT",

		"BEGIN:VEVENT", "UID:count", "SUMMARY:Course",
		"DTSTART:20240101T180000Z", "DTEND:20240101T190000Z", "RRULE:FREQ=DAILY;COUNT=5", "END:VEVENT",

		"BEGIN:VEVENT", "UID:exdate", "SUMMARY:Class",
		"DTSTART:20240101T180000Z", "DTEND:20240101T190000Z", "RRULE:FREQ=WEEKLY",
		"EXDATE:20240108T180000Z", "END:VEVENT",

		"BEGIN:VEVENT", "UID:allday", "SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20240301", "END:VEVENT",

		"BEGIN:VEVENT", "SUMMARY:No UID",
		"DTSTART:20240101T090000Z", "DTEND:20240101T100000Z", "END:VEVENT",

		"BEGIN:VEVENT", "UID:backwards", "SUMMARY:Backwards",
		"DTSTART:20240101T100000Z", "DTEND:20240101T090000Z", "END:VEVENT",

		"BEGIN:VEVENT", "UID:existing", "SUMMARY:Already here",
		"DTSTART:20240101T100000Z", "DTEND:20240101T110000Z", "END:VEVENT",
	)

	sink := &memSink{templates: []model.Template{{ID: "existing", Title: "kept"}}}
	res, err := Import(strings.NewReader(body), sink)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}

	want := ImportResult{Added: 3, Duplicates: 1, Unsupported: 3, Invalid: 2}
	if res != want {
		t.Errorf("Import() = %+v, want %+v", res, want)
	}

	daily, _ := sink.get("daily")
	if daily.Recurrence != model.Daily || daily.Color != "blue" || daily.Duration() != 30*time.Minute {
		t.Errorf("daily = %+v", daily)
	}
	if bi, _ := sink.get("biweekly"); bi.Recurrence != model.Biweekly {
		t.Errorf("biweekly recurrence = %s", bi.Recurrence)
	}
	allDay, _ := sink.get("allday")
	wantStart := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	if !allDay.Start.Equal(wantStart) || !allDay.End.Equal(wantStart.AddDate(0, 0, 1)) {
		t.Errorf("all-day span = %v..%v", allDay.Start, allDay.End)
	}
	if kept, _ := sink.get("existing"); kept.Title != "kept" {
		t.Errorf("existing template overwritten: %+v", kept)
	}
}

func TestRecurrenceFrom(t *testing.T) {
	tests := []struct {
		rule string
		want model.Recurrence
		ok   bool
	}{
		{"FREQ=DAILY", model.Daily, true},
		{"FREQ=DAILY;INTERVAL=1", model.Daily, true},
		{"FREQ=WEEKLY", model.Weekly, true},
		{"FREQ=WEEKLY;INTERVAL=2", model.Biweekly, true},
		{"FREQ=MONTHLY", model.Monthly, true},
		{"FREQ=YEARLY", model.Yearly, true},
		{"FREQ=DAILY;INTERVAL=3", model.None, false},
		{"FREQ=MONTHLY;BYMONTHDAY=-1", model.None, false},
		{"FREQ=YEARLY;UNTIL=20300101T000000Z", model.None, false},
		{"FREQ=HOURLY", model.None, false},
		{"garbage", model.None, false},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got, err := recurrenceFrom(tt.rule)
			if (err == nil) != tt.ok || got != tt.want {
				t.Errorf("recurrenceFrom(%q) = %s, %v", tt.rule, got, err)
			}
		})
	}
}

func TestFetchUsesValidators(t *testing.T) {
	const body = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(body))
	}))

	f := NewFetcher(t.TempDir())
	url := srv.URL + "/private/cal.ics?token=secret"

	first, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("first Fetch() error: %v", err)
	}
	if first.FromCache || string(first.Body) != body {
		t.Errorf("first Fetch() = %+v", first)
	}

	second, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("second Fetch() error: %v", err)
	}
	if !second.FromCache || string(second.Body) != body {
		t.Errorf("second Fetch() = %+v, want cached body", second)
	}

	srv.Close()
	third, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("offline Fetch() error: %v", err)
	}
	if !third.FromCache {
		t.Error("offline Fetch() should fall back to the cache")
	}
	if hits != 2 {
		t.Errorf("server hits = %d, want 2", hits)
	}
}

func TestFetchErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewFetcher(t.TempDir()).Fetch(context.Background(), srv.URL+"/cal.ics"); err == nil {
		t.Error("Fetch() should fail on 403 without cache")
	}
}

func TestRedactURL(t *testing.T) {
	if got := redactURL("https://example.com/path/private.ics?token=abcd"); got != "https://example.com/...(redacted)" {
		t.Errorf("redactURL() = %q", got)
	}
	if got := redactURL("not a url"); got != "ics://...(redacted)" {
		t.Errorf("redactURL(invalid) = %q", got)
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://x/y.ics") || !IsURL("http://x") || IsURL("/tmp/x.ics") || IsURL("cal.ics") {
		t.Error("IsURL misclassified input")
	}
}
