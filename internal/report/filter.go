/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package report

import (
    "regexp"
    "sort"
    "strings"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

// Criteria narrows a ticket collection. Empty fields mean "no constraint";
// the set dimensions are OR within themselves and AND across each other.
type Criteria struct {
    SearchTerm string
    Labels     []string
    Components []string
    IssueTypes []string
}

var regexTermRe = regexp.MustCompile(`^/(.+)/([gimsuy]*)$`)

// Filter returns the tickets matching all supplied criteria. The input slice
// is never mutated. A search term in /pattern/flags form is compiled as a
// regular expression (case-insensitivity forced on); an invalid pattern
// silently downgrades to plain substring search with the raw term.
func Filter(tickets []domain.Ticket, c Criteria) []domain.Ticket {
    result := tickets

    rawTerm := strings.TrimSpace(c.SearchTerm)
    if rawTerm != "" {
        if m := regexTermRe.FindStringSubmatch(rawTerm); m != nil {
            if re, err := compileSearchRegex(m[1], m[2]); err == nil {
                result = filterBy(result, func(t *domain.Ticket) bool {
                    return re.MatchString(t.Key) || re.MatchString(t.Title) || (t.Description != "" && re.MatchString(t.Description))
                })
            } else {
                result = substringFilter(result, rawTerm)
            }
        } else {
            result = substringFilter(result, rawTerm)
        }
    }

    if len(c.Labels) > 0 {
        result = filterBy(result, func(t *domain.Ticket) bool { return anyIn(t.Labels, c.Labels) })
    }
    if len(c.Components) > 0 {
        result = filterBy(result, func(t *domain.Ticket) bool { return anyIn(t.Components, c.Components) })
    }
    if len(c.IssueTypes) > 0 {
        result = filterBy(result, func(t *domain.Ticket) bool { return contains(c.IssueTypes, t.IssueType) })
    }

    return result
}

// compileSearchRegex maps JS-style flags onto Go: i is always forced, m and
// s are honored, g/u/y have no Go counterpart and are ignored.
func compileSearchRegex(pattern, flags string) (*regexp.Regexp, error) {
    goFlags := "i"
    if strings.Contains(flags, "m") { goFlags += "m" }
    if strings.Contains(flags, "s") { goFlags += "s" }
    return regexp.Compile("(?" + goFlags + ")" + pattern)
}

func substringFilter(tickets []domain.Ticket, rawTerm string) []domain.Ticket {
    term := strings.ToLower(rawTerm)
    return filterBy(tickets, func(t *domain.Ticket) bool {
        return strings.Contains(strings.ToLower(t.Key), term) ||
            strings.Contains(strings.ToLower(t.Title), term) ||
            (t.Description != "" && strings.Contains(strings.ToLower(t.Description), term))
    })
}

func filterBy(tickets []domain.Ticket, keep func(*domain.Ticket) bool) []domain.Ticket {
    out := make([]domain.Ticket, 0, len(tickets))
    for i := range tickets {
        if keep(&tickets[i]) { out = append(out, tickets[i]) }
    }
    return out
}

func anyIn(values, accepted []string) bool {
    for _, v := range values {
        if contains(accepted, v) { return true }
    }
    return false
}

func contains(list []string, v string) bool {
    for _, x := range list {
        if x == v { return true }
    }
    return false
}

func distinct(tickets []domain.Ticket, values func(*domain.Ticket) []string) []string {
    seen := map[string]struct{}{}
    for i := range tickets {
        for _, v := range values(&tickets[i]) { seen[v] = struct{}{} }
    }
    out := make([]string, 0, len(seen))
    for v := range seen { out = append(out, v) }
    sort.Strings(out)
    return out
}

// AvailableLabels lists the distinct labels across a ticket set, sorted.
func AvailableLabels(tickets []domain.Ticket) []string {
    return distinct(tickets, func(t *domain.Ticket) []string { return t.Labels })
}

// AvailableComponents lists the distinct components across a ticket set, sorted.
func AvailableComponents(tickets []domain.Ticket) []string {
    return distinct(tickets, func(t *domain.Ticket) []string { return t.Components })
}

// AvailableIssueTypes lists the distinct issue types across a ticket set, sorted.
func AvailableIssueTypes(tickets []domain.Ticket) []string {
    return distinct(tickets, func(t *domain.Ticket) []string {
        if t.IssueType == "" { return nil }
        return []string{t.IssueType}
    })
}
