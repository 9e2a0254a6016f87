package daterange

import (
    "testing"
    "time"
)

func date(y int, m time.Month, d int) time.Time {
    return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestWindow_WeekMondayStart(t *testing.T) {
    // 2024-02-15 is a Thursday
    n := NewWithClock(ModeWeek, 1, fixedClock(date(2024, 2, 15)))
    w := n.Window()
    if !w.Start.Equal(date(2024, 2, 12)) {
        t.Errorf("week start = %v, want Mon 2024-02-12", w.Start)
    }
    if FormatLocalDate(w.End) != "2024-02-18" {
        t.Errorf("week end day = %s, want 2024-02-18", FormatLocalDate(w.End))
    }
}

func TestWindow_WeekSundayStart(t *testing.T) {
    n := NewWithClock(ModeWeek, 0, fixedClock(date(2024, 2, 15)))
    w := n.Window()
    if !w.Start.Equal(date(2024, 2, 11)) {
        t.Errorf("week start = %v, want Sun 2024-02-11", w.Start)
    }
    if FormatLocalDate(w.End) != "2024-02-17" {
        t.Errorf("week end day = %s, want 2024-02-17", FormatLocalDate(w.End))
    }
}

func TestWindow_WeekStartDayAnchorsItsOwnWeek(t *testing.T) {
    // anchor is itself a Monday
    n := NewWithClock(ModeWeek, 1, fixedClock(date(2024, 2, 12)))
    if w := n.Window(); !w.Start.Equal(date(2024, 2, 12)) {
        t.Errorf("monday anchor should start its own week, got %v", w.Start)
    }
}

func TestWindow_TwoWeeksIsFourteenContiguousDays(t *testing.T) {
    n := NewWithClock(ModeTwoWeeks, 1, fixedClock(date(2024, 2, 15)))
    w := n.Window()
    if !w.Start.Equal(date(2024, 2, 12)) { t.Errorf("start = %v", w.Start) }
    if FormatLocalDate(w.End) != "2024-02-25" {
        t.Errorf("end day = %s, want 2024-02-25", FormatLocalDate(w.End))
    }
    days := int(w.End.Sub(w.Start).Hours()/24) + 1
    if days != 14 { t.Errorf("window spans %d days, want 14", days) }
}

func TestWindow_MonthLeapYear(t *testing.T) {
    n := NewWithClock(ModeMonth, 1, fixedClock(date(2024, 2, 15)))
    w := n.Window()
    if FormatLocalDate(w.Start) != "2024-02-01" || FormatLocalDate(w.End) != "2024-02-29" {
        t.Fatalf("month window = %s..%s, want 2024-02-01..2024-02-29",
            FormatLocalDate(w.Start), FormatLocalDate(w.End))
    }
}

func TestWindow_Custom(t *testing.T) {
    n := NewWithClock(ModeCustom, 1, fixedClock(date(2024, 2, 15)))
    n.SetCustom(date(2024, 1, 3), date(2024, 1, 20))
    w := n.Window()
    if FormatLocalDate(w.Start) != "2024-01-03" || FormatLocalDate(w.End) != "2024-01-20" {
        t.Fatalf("custom window = %s..%s", FormatLocalDate(w.Start), FormatLocalDate(w.End))
    }
}

func TestAdvance(t *testing.T) {
    n := NewWithClock(ModeWeek, 1, fixedClock(date(2024, 2, 15)))
    n.Next()
    if FormatLocalDate(n.Anchor) != "2024-02-22" { t.Errorf("week next anchor = %v", n.Anchor) }
    n.Previous()
    n.Previous()
    if FormatLocalDate(n.Anchor) != "2024-02-08" { t.Errorf("week prev anchor = %v", n.Anchor) }

    n = NewWithClock(ModeTwoWeeks, 1, fixedClock(date(2024, 2, 15)))
    n.Next()
    if FormatLocalDate(n.Anchor) != "2024-02-29" { t.Errorf("two-week next anchor = %v", n.Anchor) }

    n = NewWithClock(ModeMonth, 1, fixedClock(date(2024, 1, 31)))
    n.Next()
    // Go normalizes Jan 31 + 1 month to Mar 2; the window still lands on a
    // valid month either way.
    if n.Anchor.Before(date(2024, 2, 28)) { t.Errorf("month next anchor = %v", n.Anchor) }

    n = NewWithClock(ModeCustom, 1, fixedClock(date(2024, 2, 15)))
    before := n.Anchor
    n.Next()
    if !n.Anchor.Equal(before) { t.Errorf("custom advance must be a no-op") }
}

func TestResetToToday(t *testing.T) {
    today := date(2024, 6, 1)
    n := NewWithClock(ModeWeek, 1, fixedClock(today))
    n.Next()
    n.ResetToToday()
    if !n.Anchor.Equal(today) { t.Errorf("anchor = %v, want %v", n.Anchor, today) }
}

func TestParseLocalDate(t *testing.T) {
    got, err := ParseLocalDate("2024-02-29")
    if err != nil { t.Fatalf("parse failed: %v", err) }
    if got.Year() != 2024 || got.Month() != time.February || got.Day() != 29 {
        t.Errorf("parsed = %v", got)
    }
    if got.Location() != time.Local { t.Errorf("must parse in local time, got %v", got.Location()) }
    if got.Hour() != 0 || got.Minute() != 0 { t.Errorf("time-of-day must be midnight: %v", got) }

    for _, bad := range []string{"", "2024", "2024-13-01", "2024-02-00", "not-a-date"} {
        if _, err := ParseLocalDate(bad); err == nil {
            t.Errorf("ParseLocalDate(%q) should fail", bad)
        }
    }
}

func TestFormatLocalDate_RoundTrip(t *testing.T) {
    for _, s := range []string{"2024-01-05", "1999-12-31", "2024-02-29"} {
        d, err := ParseLocalDate(s)
        if err != nil { t.Fatalf("parse %q: %v", s, err) }
        if got := FormatLocalDate(d); got != s {
            t.Errorf("round trip %q -> %q", s, got)
        }
    }
}
