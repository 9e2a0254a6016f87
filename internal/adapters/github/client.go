/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package github

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "regexp"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/twinoxen/jira-task-calendar/internal/config"
    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

var ticketKeyRe = regexp.MustCompile(`(?i)\b[A-Z]+-\d+\b`)

type Client struct {
    token string
    org   string
    repos []string
    http  *http.Client
    log   zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        token: cfg.GitHubToken,
        org:   cfg.GitHubOrg,
        repos: cfg.GitHubRepos,
        http:  &http.Client{Timeout: cfg.HTTPTimeout},
        log:   log,
    }
}

func (c *Client) doJSON(ctx context.Context, u string, out any) error {
    if c.org == "" { return errors.New("github: empty org") }
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
        if err != nil { return err }
        if c.token != "" { req.Header.Set("Authorization", "Bearer "+c.token) }
        req.Header.Set("Accept", "application/vnd.github+json")
        resp, err := c.http.Do(req)
        if err != nil {
            lastErr = err
        } else {
            b, rerr := io.ReadAll(resp.Body)
            resp.Body.Close()
            if rerr != nil { return rerr }
            if resp.StatusCode >= 300 {
                apiErr := fmt.Errorf("github api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
                if resp.StatusCode != 403 && resp.StatusCode != 429 && resp.StatusCode < 500 { return apiErr }
                lastErr = apiErr
            } else {
                return json.Unmarshal(b, out)
            }
        }
        time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
    }
    return lastErr
}

type rawPR struct {
    Number  int     `json:"number"`
    Title   string  `json:"title"`
    HTMLURL string  `json:"html_url"`
    Body    string  `json:"body"`
    State   string  `json:"state"`
    User    rawUser `json:"user"`
    Head    struct {
        Ref string `json:"ref"`
    } `json:"head"`
    CreatedAt    time.Time  `json:"created_at"`
    MergedAt     *time.Time `json:"merged_at"`
    ClosedAt     *time.Time `json:"closed_at"`
    PullRequest  *struct{ MergedAt *time.Time `json:"merged_at"` } `json:"pull_request"`
    RepositoryURL string    `json:"repository_url"`
}

type rawUser struct {
    Login string `json:"login"`
}

// SearchPullRequests lists PRs created since the given date, either per
// configured repo or across the whole org via the search API.
func (c *Client) SearchPullRequests(ctx context.Context, since time.Time) ([]domain.PullRequest, error) {
    if len(c.repos) == 0 {
        return c.searchOrg(ctx, since)
    }
    var out []domain.PullRequest
    for _, repo := range c.repos {
        u := fmt.Sprintf("https://api.github.com/repos/%s/%s/pulls?state=all&sort=created&direction=desc&per_page=100",
            url.PathEscape(c.org), url.PathEscape(repo))
        var prs []rawPR
        if err := c.doJSON(ctx, u, &prs); err != nil {
            c.log.Error().Err(err).Str("repo", repo).Msg("github: repo pulls failed")
            continue
        }
        for i := range prs {
            if prs[i].CreatedAt.Before(since) { continue }
            out = append(out, c.mapPR(&prs[i], repo))
        }
    }
    return out, nil
}

func (c *Client) searchOrg(ctx context.Context, since time.Time) ([]domain.PullRequest, error) {
    q := fmt.Sprintf("org:%s is:pr created:>=%s", c.org, since.Format("2006-01-02"))
    u := "https://api.github.com/search/issues?q=" + url.QueryEscape(q) + "&per_page=100&sort=created&order=desc"
    var res struct {
        Items []rawPR `json:"items"`
    }
    if err := c.doJSON(ctx, u, &res); err != nil { return nil, err }
    out := make([]domain.PullRequest, 0, len(res.Items))
    for i := range res.Items {
        repo := repoFromURL(res.Items[i].RepositoryURL)
        out = append(out, c.mapPR(&res.Items[i], repo))
    }
    return out, nil
}

func (c *Client) mapPR(pr *rawPR, repo string) domain.PullRequest {
    mergedAt := pr.MergedAt
    if mergedAt == nil && pr.PullRequest != nil { mergedAt = pr.PullRequest.MergedAt }
    status := "open"
    if mergedAt != nil {
        status = "merged"
    } else if pr.State == "closed" {
        status = "closed"
    }
    return domain.PullRequest{
        Number:           pr.Number,
        Title:            pr.Title,
        URL:              pr.HTMLURL,
        Repo:             repo,
        Author:           pr.User.Login,
        CreatedAt:        pr.CreatedAt,
        MergedAt:         mergedAt,
        ClosedAt:         pr.ClosedAt,
        Status:           status,
        LinkedTicketKeys: ExtractTicketKeys(pr.Title + " " + pr.Head.Ref + " " + pr.Body),
    }
}

func repoFromURL(u string) string {
    if idx := strings.LastIndex(u, "/"); idx >= 0 { return u[idx+1:] }
    return ""
}

// ExtractTicketKeys pulls unique PROJECT-123 style keys out of free text,
// uppercased so branch names like proj-42-fix still link.
func ExtractTicketKeys(text string) []string {
    matches := ticketKeyRe.FindAllString(text, -1)
    seen := map[string]struct{}{}
    out := make([]string, 0, len(matches))
    for _, m := range matches {
        key := strings.ToUpper(m)
        if _, ok := seen[key]; ok { continue }
        seen[key] = struct{}{}
        out = append(out, key)
    }
    return out
}

// MatchPullRequests attaches each PR to every ticket its text references.
func MatchPullRequests(tickets []domain.Ticket, prs []domain.PullRequest) {
    byKey := map[string][]domain.PullRequest{}
    for _, pr := range prs {
        for _, key := range pr.LinkedTicketKeys {
            byKey[key] = append(byKey[key], pr)
        }
    }
    for i := range tickets {
        tickets[i].PRs = byKey[tickets[i].Key]
    }
}
