/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package timeline

import (
    "sort"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

// SortStatusHistory orders raw status changes ascending by timestamp.
// The sort is stable so ties keep changelog document order.
func SortStatusHistory(changes []domain.StatusChange) []domain.StatusChange {
    out := make([]domain.StatusChange, len(changes))
    copy(out, changes)
    sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
    return out
}

// BuildTrackedHistory filters a raw changelog down to the tracked states:
// sort ascending, normalize each status, drop untracked ones, then collapse
// consecutive runs of the same canonical status keeping the first event of
// each run (its timestamp is the true transition time).
func BuildTrackedHistory(changes []domain.StatusChange) []domain.StatusChange {
    sorted := SortStatusHistory(changes)
    tracked := make([]domain.StatusChange, 0, len(sorted))
    for _, ch := range sorted {
        canon, ok := Normalize(ch.Status)
        if !ok { continue }
        ch.Status = canon
        tracked = append(tracked, ch)
    }
    // Deduplicate consecutive same statuses
    deduped := tracked[:0]
    for _, ch := range tracked {
        if len(deduped) == 0 || deduped[len(deduped)-1].Status != ch.Status {
            deduped = append(deduped, ch)
        }
    }
    return deduped
}
