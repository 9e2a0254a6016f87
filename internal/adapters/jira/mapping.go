/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "encoding/json"
    "fmt"
    "sort"
    "strings"
    "time"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
    "github.com/twinoxen/jira-task-calendar/internal/timeline"
)

// Changelog field names that carry a story point estimate.
var pointFieldNames = map[string]struct{}{
    "Story Points":         {},
    "Story point estimate": {},
    "story_points":         {},
}

// FetchTickets runs the JQL query and maps every matching issue into the
// typed ticket model, with status history parsed and state segments derived.
func (c *Client) FetchTickets(ctx context.Context, jql string) ([]domain.Ticket, error) {
    issues, err := c.SearchIssues(ctx, jql)
    if err != nil { return nil, err }
    tickets := make([]domain.Ticket, 0, len(issues))
    for i := range issues {
        tickets = append(tickets, c.mapIssue(&issues[i]))
    }
    c.log.Info().Int("tickets", len(tickets)).Str("jql", jql).Msg("jira: fetched tickets")
    return tickets, nil
}

func (c *Client) mapIssue(issue *rawIssue) domain.Ticket {
    f := &issue.Fields

    assignee := domain.User{ID: "unassigned", Name: "Unassigned"}
    if f.Assignee != nil {
        assignee = mapUser(f.Assignee)
    }

    created := parseTime(f.Created)
    statusHistory := parseStatusHistory(issue.Changelog)
    tracked := timeline.BuildTrackedHistory(statusHistory)
    segments := timeline.BuildSegments(tracked)
    start, end := timeline.TicketSpan(created, tracked, segments)

    rawStatus := ""
    if f.Status != nil { rawStatus = f.Status.Name }
    issueType := "Unknown"
    if f.IssueType != nil && f.IssueType.Name != "" { issueType = f.IssueType.Name }

    components := make([]string, 0, len(f.Components))
    for _, comp := range f.Components {
        if comp.Name != "" { components = append(components, comp.Name) }
    }

    return domain.Ticket{
        Key:           issue.Key,
        Title:         f.Summary,
        Description:   descriptionText(f.Description),
        Points:        storyPoints(f),
        PointsHistory: parsePointsHistory(issue.Changelog),
        Assignee:      assignee,
        StartDate:     start,
        EndDate:       end,
        StatusHistory: timeline.SortStatusHistory(statusHistory),
        CurrentStatus: timeline.CurrentStatus(rawStatus),
        StateSegments: segments,
        IssueType:     issueType,
        Labels:        f.Labels,
        Components:    components,
        JiraURL:       c.baseURL + "/browse/" + issue.Key,
    }
}

func mapUser(u *rawUser) domain.User {
    return domain.User{
        ID:        u.AccountID,
        Name:      u.DisplayName,
        Email:     u.EmailAddress,
        AvatarURL: u.AvatarURLs["48x48"],
    }
}

// parseStatusHistory extracts one raw status-change event per "status" item
// in the changelog. Order is whatever Jira returned; builders sort.
func parseStatusHistory(cl *rawChangelog) []domain.StatusChange {
    if cl == nil { return nil }
    var out []domain.StatusChange
    for _, h := range cl.Histories {
        at := parseTime(h.Created)
        for _, item := range h.Items {
            if item.Field != "status" { continue }
            var author *domain.User
            if h.Author != nil {
                u := mapUser(h.Author)
                author = &u
            }
            out = append(out, domain.StatusChange{Status: item.ToString, Timestamp: at, Author: author})
        }
    }
    return out
}

func parsePointsHistory(cl *rawChangelog) []domain.PointsChange {
    if cl == nil { return nil }
    var out []domain.PointsChange
    for _, h := range cl.Histories {
        at := parseTime(h.Created)
        for _, item := range h.Items {
            if _, ok := pointFieldNames[item.Field]; !ok { continue }
            out = append(out, domain.PointsChange{
                From:      parsePointString(item.FromString),
                To:        parsePointString(item.ToString),
                Timestamp: at,
            })
        }
    }
    sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
    return out
}

func parsePointString(s string) *float64 {
    s = strings.TrimSpace(s)
    if s == "" { return nil }
    var f float64
    if _, err := fmt.Sscanf(s, "%g", &f); err != nil { return nil }
    return &f
}

// storyPoints probes the known custom fields in priority order.
func storyPoints(f *rawFields) *float64 {
    for _, p := range []pointValue{f.Points10028, f.Points10016, f.Points10026, f.Points10036, f.StoryPoints} {
        if p.Value != nil { return p.Value }
    }
    return nil
}

// descriptionText flattens a description that may arrive as a plain string
// (API v2) or an Atlassian Document Format tree (API v3).
func descriptionText(raw json.RawMessage) string {
    if len(raw) == 0 { return "" }
    var s string
    if err := json.Unmarshal(raw, &s); err == nil { return s }
    var node adfNode
    if err := json.Unmarshal(raw, &node); err != nil { return "" }
    b := &strings.Builder{}
    collectADFText(&node, b)
    return strings.TrimSpace(b.String())
}

type adfNode struct {
    Type    string    `json:"type"`
    Text    string    `json:"text"`
    Content []adfNode `json:"content"`
}

func collectADFText(n *adfNode, b *strings.Builder) {
    if n.Text != "" { b.WriteString(n.Text) }
    for i := range n.Content {
        collectADFText(&n.Content[i], b)
    }
    if n.Type == "paragraph" { b.WriteString("\n") }
}

func parseTime(s string) time.Time {
    if s == "" { return time.Time{} }
    layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05-0700"}
    for _, l := range layouts {
        if t, err := time.Parse(l, s); err == nil { return t }
    }
    return time.Time{}
}

// BuildWindowJQL captures every ticket that was relevant during the range:
// created or updated in it, status-changed in it, or still open at its end.
func BuildWindowJQL(project string, start, end string, users []string) string {
    dateFilter := fmt.Sprintf(
        `(created >= "%s" OR updated >= "%s" OR status changed DURING ("%s", "%s") OR (created <= "%s" AND status NOT IN (Done, Closed, Resolved)))`,
        start, start, start, end, end)

    jql := dateFilter
    if project != "" {
        // board ids like "KEY-123" carry the project key up front
        key := project
        if idx := strings.Index(project, "-"); idx > 0 { key = project[:idx] }
        jql = fmt.Sprintf("project = %q AND %s", key, dateFilter)
    }
    if len(users) > 0 {
        quoted := make([]string, 0, len(users))
        for _, u := range users { quoted = append(quoted, fmt.Sprintf("%q", u)) }
        jql += " AND assignee in (" + strings.Join(quoted, ", ") + ")"
    }
    return jql + " ORDER BY updated DESC"
}
