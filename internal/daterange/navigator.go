/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package daterange

import (
    "fmt"
    "time"
)

type Mode string

const (
    ModeWeek     Mode = "1week"
    ModeTwoWeeks Mode = "2weeks"
    ModeMonth    Mode = "1month"
    ModeCustom   Mode = "custom"
)

// Window is an inclusive reporting range: Start is the first instant of the
// first day, End the last instant of the last day.
type Window struct {
    Start time.Time
    End   time.Time
}

// Navigator holds the reporting-window state for one session. Each report
// session owns its own Navigator; there is no process-wide instance. The
// clock is injectable so window math stays testable.
type Navigator struct {
    Mode         Mode
    Anchor       time.Time
    CustomStart  time.Time
    CustomEnd    time.Time
    WeekStartsOn int // 0 = Sunday, 1 = Monday

    now func() time.Time
}

func New(mode Mode, weekStartsOn int) *Navigator {
    n := &Navigator{Mode: mode, WeekStartsOn: weekStartsOn, now: time.Now}
    n.Anchor = n.now()
    n.CustomStart = n.Anchor
    n.CustomEnd = n.Anchor
    return n
}

// NewWithClock is New with a fixed clock, for tests.
func NewWithClock(mode Mode, weekStartsOn int, now func() time.Time) *Navigator {
    n := New(mode, weekStartsOn)
    n.now = now
    n.Anchor = now()
    n.CustomStart = n.Anchor
    n.CustomEnd = n.Anchor
    return n
}

// Window computes the current reporting range from the anchor date:
// the anchor's week, the anchor's week plus the following one (14 contiguous
// days), the anchor's calendar month, or the explicit custom bounds.
func (n *Navigator) Window() Window {
    switch n.Mode {
    case ModeWeek:
        start := startOfWeek(n.Anchor, n.WeekStartsOn)
        return Window{Start: start, End: endOfDay(start.AddDate(0, 0, 6))}
    case ModeTwoWeeks:
        start := startOfWeek(n.Anchor, n.WeekStartsOn)
        return Window{Start: start, End: endOfDay(start.AddDate(0, 0, 13))}
    case ModeMonth:
        start := time.Date(n.Anchor.Year(), n.Anchor.Month(), 1, 0, 0, 0, 0, n.Anchor.Location())
        return Window{Start: start, End: endOfDay(start.AddDate(0, 1, -1))}
    case ModeCustom:
        return Window{Start: startOfDay(n.CustomStart), End: endOfDay(n.CustomEnd)}
    }
    return Window{Start: startOfDay(n.Anchor), End: endOfDay(n.Anchor)}
}

// Next advances the anchor by one period; custom windows only move via
// SetCustom.
func (n *Navigator) Next() { n.advance(1) }

// Previous moves the anchor back by one period.
func (n *Navigator) Previous() { n.advance(-1) }

func (n *Navigator) advance(dir int) {
    switch n.Mode {
    case ModeWeek:
        n.Anchor = n.Anchor.AddDate(0, 0, 7*dir)
    case ModeTwoWeeks:
        n.Anchor = n.Anchor.AddDate(0, 0, 14*dir)
    case ModeMonth:
        n.Anchor = n.Anchor.AddDate(0, dir, 0)
    }
}

func (n *Navigator) ResetToToday() { n.Anchor = n.now() }

func (n *Navigator) SetMode(mode Mode) { n.Mode = mode }

func (n *Navigator) SetCustom(start, end time.Time) {
    n.CustomStart = start
    n.CustomEnd = end
}

func startOfDay(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
    return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func startOfWeek(t time.Time, weekStartsOn int) time.Time {
    diff := (int(t.Weekday()) - weekStartsOn + 7) % 7
    return startOfDay(t.AddDate(0, 0, -diff))
}

// ParseLocalDate parses "YYYY-MM-DD" into a local-calendar date. Components
// are interpreted in local time, never UTC-shifted: parsing through UTC and
// converting would land user-entered bounds on the wrong day in western
// timezones.
func ParseLocalDate(s string) (time.Time, error) {
    var y, m, d int
    if _, err := fmt.Sscanf(s, "%d-%d-%d", &y, &m, &d); err != nil {
        return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
    }
    if m < 1 || m > 12 || d < 1 || d > 31 {
        return time.Time{}, fmt.Errorf("invalid date %q", s)
    }
    return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), nil
}

// FormatLocalDate renders a date as "YYYY-MM-DD" using its own calendar
// components.
func FormatLocalDate(t time.Time) string {
    return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}
