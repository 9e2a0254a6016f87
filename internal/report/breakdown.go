/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package report

import (
    "math"
    "sort"
    "strconv"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
    "github.com/twinoxen/jira-task-calendar/internal/timeline"
)

// KeyExtractor maps a ticket to the group keys it belongs to. A ticket may
// land in several groups (one per label) or none.
type KeyExtractor func(*domain.Ticket) []string

// Breakdown groups tickets by the extracted keys and computes per-group
// stats: ticket count, summed points, share of total points, completed count
// and average cycle time over completed tickets. Percent shares use the
// whole set's points as denominator, floored at 1 so an unestimated set does
// not divide by zero. Rows sort descending by points; ties keep discovery
// order.
func Breakdown(tickets []domain.Ticket, keyFn KeyExtractor) []domain.BreakdownEntry {
    type group struct {
        count          int
        points         float64
        completedCount int
        cycleTimes     []float64
    }
    groups := map[string]*group{}
    var order []string

    for i := range tickets {
        t := &tickets[i]
        for _, key := range keyFn(t) {
            g := groups[key]
            if g == nil {
                g = &group{}
                groups[key] = g
                order = append(order, key)
            }
            g.count++
            if t.Points != nil { g.points += *t.Points }
            if t.CurrentStatus == domain.StatusDone {
                g.completedCount++
                if ct := timeline.CycleTimeDays(t.StateSegments); ct != nil {
                    g.cycleTimes = append(g.cycleTimes, *ct)
                }
            }
        }
    }

    total := TotalPoints(tickets)
    if total <= 0 { total = 1 }

    entries := make([]domain.BreakdownEntry, 0, len(order))
    for _, name := range order {
        g := groups[name]
        entries = append(entries, domain.BreakdownEntry{
            Name:             name,
            Count:            g.count,
            Points:           g.points,
            PercentOfPoints:  int(math.Round(g.points / total * 100)),
            CompletedCount:   g.completedCount,
            AvgCycleTimeDays: meanRounded(g.cycleTimes),
        })
    }
    sort.SliceStable(entries, func(i, j int) bool { return entries[i].Points > entries[j].Points })
    return entries
}

func meanRounded(samples []float64) *float64 {
    if len(samples) == 0 { return nil }
    sum := 0.0
    for _, s := range samples { sum += s }
    avg := math.Round(sum/float64(len(samples))*10) / 10
    return &avg
}

// ByType groups by issue type.
func ByType(t *domain.Ticket) []string {
    if t.IssueType == "" { return []string{"Unknown"} }
    return []string{t.IssueType}
}

// ByAssignee groups by team member display name.
func ByAssignee(t *domain.Ticket) []string {
    if t.Assignee.Name == "" { return []string{"Unassigned"} }
    return []string{t.Assignee.Name}
}

// ByLabel groups by label; a ticket with several labels appears in each.
func ByLabel(t *domain.Ticket) []string {
    if len(t.Labels) == 0 { return []string{"No Label"} }
    return t.Labels
}

// ByComponent groups by component; a ticket with several appears in each.
func ByComponent(t *domain.Ticket) []string {
    if len(t.Components) == 0 { return []string{"No Component"} }
    return t.Components
}

// PointsSizeDistribution counts how many tickets carry each point size
// (how many 1s, 2s, 3s, 5s, ...). Unestimated tickets form their own bucket
// sorted last; numeric sizes sort ascending.
func PointsSizeDistribution(tickets []domain.Ticket) []domain.PointsSizeEntry {
    counts := map[float64]int{}
    unestimated := 0
    for i := range tickets {
        if tickets[i].Points == nil {
            unestimated++
        } else {
            counts[*tickets[i].Points]++
        }
    }

    total := len(tickets)
    if total == 0 { total = 1 }

    sizes := make([]float64, 0, len(counts))
    for s := range counts { sizes = append(sizes, s) }
    sort.Float64s(sizes)

    entries := make([]domain.PointsSizeEntry, 0, len(sizes)+1)
    for _, s := range sizes {
        size := s
        entries = append(entries, domain.PointsSizeEntry{
            Size:           &size,
            Label:          strconv.FormatFloat(s, 'f', -1, 64),
            Count:          counts[s],
            PercentOfTotal: int(math.Round(float64(counts[s]) / float64(total) * 100)),
        })
    }
    if unestimated > 0 {
        entries = append(entries, domain.PointsSizeEntry{
            Size:           nil,
            Label:          "Unestimated",
            Count:          unestimated,
            PercentOfTotal: int(math.Round(float64(unestimated) / float64(total) * 100)),
        })
    }
    return entries
}

// TotalPoints sums estimated points across a ticket set.
func TotalPoints(tickets []domain.Ticket) float64 {
    sum := 0.0
    for i := range tickets {
        if tickets[i].Points != nil { sum += *tickets[i].Points }
    }
    return sum
}

// CompletedTickets returns the subset whose current status is Done.
func CompletedTickets(tickets []domain.Ticket) []domain.Ticket {
    out := make([]domain.Ticket, 0, len(tickets))
    for i := range tickets {
        if tickets[i].CurrentStatus == domain.StatusDone { out = append(out, tickets[i]) }
    }
    return out
}

// AvgCycleTime is the mean cycle time over completed tickets with a defined
// sample, rounded to one decimal; nil when no ticket qualifies.
func AvgCycleTime(tickets []domain.Ticket) *float64 {
    var samples []float64
    for i := range tickets {
        if tickets[i].CurrentStatus != domain.StatusDone { continue }
        if ct := timeline.CycleTimeDays(tickets[i].StateSegments); ct != nil {
            samples = append(samples, *ct)
        }
    }
    return meanRounded(samples)
}
