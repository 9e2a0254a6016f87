/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package timeline

import (
    "strings"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

// Status colors for timeline rendering. Fallback covers untracked statuses
// that leak through to display code.
const (
    ColorToDo       = "#94a3b8"
    ColorInProgress = "#3b82f6"
    ColorDone       = "#10b981"
    ColorDefault    = "#8b5cf6"
)

var statusSynonyms = map[string]string{
    // To Do variations
    "to do":   domain.StatusToDo,
    "todo":    domain.StatusToDo,
    "backlog": domain.StatusToDo,
    "open":    domain.StatusToDo,
    "new":     domain.StatusToDo,

    // In Progress variations (including UAT, QA, testing, etc.)
    "in progress":    domain.StatusInProgress,
    "in development": domain.StatusInProgress,
    "in dev":         domain.StatusInProgress,
    "development":    domain.StatusInProgress,
    "working":        domain.StatusInProgress,
    "wip":            domain.StatusInProgress,
    "active":         domain.StatusInProgress,
    "uat":            domain.StatusInProgress,
    "qa":             domain.StatusInProgress,
    "testing":        domain.StatusInProgress,
    "in review":      domain.StatusInProgress,
    "review":         domain.StatusInProgress,
    "code review":    domain.StatusInProgress,

    // Done variations
    "done":      domain.StatusDone,
    "completed": domain.StatusDone,
    "complete":  domain.StatusDone,
    "closed":    domain.StatusDone,
    "resolved":  domain.StatusDone,
    "finished":  domain.StatusDone,
    "abandoned": domain.StatusDone,
}

// Normalize maps a raw Jira status label to one of the three tracked states.
// Unknown labels (Blocked, Triage, ...) report ok=false and are dropped by
// the history builder.
func Normalize(raw string) (string, bool) {
    canon, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(raw))]
    return canon, ok
}

// StatusColor returns the fixed palette color for a canonical state.
func StatusColor(status string) string {
    switch status {
    case domain.StatusToDo:
        return ColorToDo
    case domain.StatusInProgress:
        return ColorInProgress
    case domain.StatusDone:
        return ColorDone
    }
    return ColorDefault
}
