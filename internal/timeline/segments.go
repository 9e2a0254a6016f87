/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package timeline

import (
    "time"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

// BuildSegments converts tracked history into contiguous, non-overlapping
// time segments: each segment runs from its event to the next one. The last
// segment stays open (nil end) while the ticket is still in that state; a
// final Done event produces a zero-width segment so a completed ticket does
// not extend indefinitely. Re-entrant transitions simply produce more
// segments in sequence.
func BuildSegments(tracked []domain.StatusChange) []domain.StateSegment {
    segments := make([]domain.StateSegment, 0, len(tracked))
    for i, ch := range tracked {
        var end *time.Time
        if i+1 < len(tracked) {
            t := tracked[i+1].Timestamp
            end = &t
        } else if ch.Status == domain.StatusDone {
            t := ch.Timestamp
            end = &t
        }
        segments = append(segments, domain.StateSegment{
            Status:    ch.Status,
            StartDate: ch.Timestamp,
            EndDate:   end,
            Color:     StatusColor(ch.Status),
        })
    }
    return segments
}
