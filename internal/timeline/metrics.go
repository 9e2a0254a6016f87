/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package timeline

import (
    "math"
    "time"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

// CycleTimeDays computes calendar days between the first entry into
// In Progress and the first entry into Done, rounded to one decimal.
// Returns nil when either segment is missing. The two segments are looked up
// independently with no ordering check: a ticket reopened after Done clamps
// to 0 instead of measuring the latest cycle.
func CycleTimeDays(segments []domain.StateSegment) *float64 {
    var inProgress, done *domain.StateSegment
    for i := range segments {
        if inProgress == nil && segments[i].Status == domain.StatusInProgress { inProgress = &segments[i] }
        if done == nil && segments[i].Status == domain.StatusDone { done = &segments[i] }
    }
    if inProgress == nil || done == nil { return nil }
    delta := done.StartDate.Sub(inProgress.StartDate)
    if delta <= 0 {
        zero := 0.0
        return &zero
    }
    days := math.Round(delta.Hours()/24*10) / 10
    return &days
}

// ActiveDays counts the distinct local calendar days a ticket held
// In Progress at any point. Days of each In Progress segment are collected
// into one set, so re-entering In Progress on the same day does not double
// count. The end day itself is excluded (half-open interval); open or
// same-day segments still contribute their start day.
func ActiveDays(segments []domain.StateSegment, now time.Time) int {
    activeDays := map[string]struct{}{}
    for _, seg := range segments {
        if seg.Status != domain.StatusInProgress { continue }
        segEnd := now
        if seg.EndDate != nil { segEnd = *seg.EndDate }
        startDay := startOfDay(seg.StartDate)
        endDay := startOfDay(segEnd)
        for d := startDay; d.Before(endDay); d = d.AddDate(0, 0, 1) {
            activeDays[d.Format("2006-01-02")] = struct{}{}
        }
        if seg.EndDate == nil || startDay.Equal(endDay) {
            activeDays[startDay.Format("2006-01-02")] = struct{}{}
        }
    }
    return len(activeDays)
}

func startOfDay(t time.Time) time.Time {
    return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
