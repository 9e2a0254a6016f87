package timeline

import (
    "time"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

// TicketSpan derives the overall start/end of a ticket's lifecycle. Start is
// when the ticket first entered a tracked state, falling back to creation
// time when it never did; End is when it first reached Done, nil otherwise.
func TicketSpan(created time.Time, tracked []domain.StatusChange, segments []domain.StateSegment) (time.Time, *time.Time) {
    start := created
    if len(tracked) > 0 { start = tracked[0].Timestamp }
    for i := range segments {
        if segments[i].Status == domain.StatusDone {
            t := segments[i].StartDate
            return start, &t
        }
    }
    return start, nil
}

// CurrentStatus normalizes the live status label, passing the raw label
// through for untracked statuses so the caller still sees something.
func CurrentStatus(raw string) string {
    if canon, ok := Normalize(raw); ok { return canon }
    return raw
}
