/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "encoding/base64"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/twinoxen/jira-task-calendar/internal/config"
    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

type Client struct {
    baseURL string
    basic   string
    http    *http.Client
    log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        baseURL: strings.TrimRight(cfg.JiraBaseURL, "/"),
        basic:   base64.StdEncoding.EncodeToString([]byte(cfg.JiraEmail + ":" + cfg.JiraAPIToken)),
        http:    &http.Client{Timeout: cfg.HTTPTimeout},
        log:     log,
    }
}

func (c *Client) apiURL(path string, q url.Values) string {
    u := c.baseURL + "/rest/api/3" + path
    if len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

// doJSON performs a request with basic auth, retrying on 429/5xx with
// exponential backoff, and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, u string, out any) error {
    if c.baseURL == "" { return errors.New("jira: empty baseURL") }
    var lastErr error
    for attempt := 0; attempt < 3; attempt++ {
        req, err := http.NewRequestWithContext(ctx, method, u, nil)
        if err != nil { return err }
        req.Header.Set("Authorization", "Basic "+c.basic)
        req.Header.Set("Accept", "application/json")
        resp, err := c.http.Do(req)
        if err != nil {
            lastErr = err
        } else {
            b, rerr := io.ReadAll(resp.Body)
            resp.Body.Close()
            if rerr != nil { return rerr }
            if resp.StatusCode >= 300 {
                apiErr := fmt.Errorf("jira api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
                // retry on 429/5xx only
                if resp.StatusCode != 429 && resp.StatusCode < 500 { return apiErr }
                lastErr = apiErr
            } else {
                return json.Unmarshal(b, out)
            }
        }
        time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
    }
    return lastErr
}

// ---- wire DTOs; JSON decoding happens only here, never in the core ----

type searchResponse struct {
    StartAt    int        `json:"startAt"`
    MaxResults int        `json:"maxResults"`
    Total      int        `json:"total"`
    Issues     []rawIssue `json:"issues"`
}

type rawIssue struct {
    Key       string        `json:"key"`
    Fields    rawFields     `json:"fields"`
    Changelog *rawChangelog `json:"changelog"`
}

type rawFields struct {
    Summary     string          `json:"summary"`
    Description json.RawMessage `json:"description"`
    Created     string          `json:"created"`
    Updated     string          `json:"updated"`
    Status      *rawNamed       `json:"status"`
    IssueType   *rawNamed       `json:"issuetype"`
    Assignee    *rawUser        `json:"assignee"`
    Labels      []string        `json:"labels"`
    Components  []rawNamed      `json:"components"`

    // Story point estimates live in instance-specific custom fields.
    Points10028 pointValue `json:"customfield_10028"`
    Points10016 pointValue `json:"customfield_10016"`
    Points10026 pointValue `json:"customfield_10026"`
    Points10036 pointValue `json:"customfield_10036"`
    StoryPoints pointValue `json:"story_points"`
}

type rawNamed struct {
    Name string `json:"name"`
}

type rawUser struct {
    AccountID    string            `json:"accountId"`
    DisplayName  string            `json:"displayName"`
    EmailAddress string            `json:"emailAddress"`
    AvatarURLs   map[string]string `json:"avatarUrls"`
}

type rawChangelog struct {
    Histories []rawHistory `json:"histories"`
}

type rawHistory struct {
    Created string           `json:"created"`
    Author  *rawUser         `json:"author"`
    Items   []rawHistoryItem `json:"items"`
}

type rawHistoryItem struct {
    Field      string `json:"field"`
    FromString string `json:"fromString"`
    ToString   string `json:"toString"`
}

// pointValue tolerates Jira returning an estimate as number, numeric
// string, or null.
type pointValue struct {
    Value *float64
}

func (p *pointValue) UnmarshalJSON(b []byte) error {
    s := strings.TrimSpace(string(b))
    if s == "null" || s == "" { return nil }
    var f float64
    if err := json.Unmarshal(b, &f); err == nil { p.Value = &f; return nil }
    var str string
    if err := json.Unmarshal(b, &str); err == nil {
        if _, serr := fmt.Sscanf(strings.TrimSpace(str), "%g", &f); serr == nil { p.Value = &f }
        return nil
    }
    // unparseable estimate is treated as unestimated, not an error
    return nil
}

// SearchIssues runs a JQL query with changelog expansion, paginating until
// all matches are fetched.
func (c *Client) SearchIssues(ctx context.Context, jql string) ([]rawIssue, error) {
    if jql == "" { return nil, errors.New("jira: empty jql") }
    var out []rawIssue
    startAt := 0
    for {
        q := url.Values{}
        q.Set("jql", jql)
        q.Set("maxResults", "100")
        q.Set("expand", "changelog")
        q.Set("fields", "summary,assignee,status,created,updated,description,issuetype,labels,components,customfield_10028,customfield_10016,customfield_10026,customfield_10036")
        if startAt > 0 { q.Set("startAt", fmt.Sprint(startAt)) }
        var page searchResponse
        if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/search/jql", q), &page); err != nil { return nil, err }
        out = append(out, page.Issues...)
        if len(page.Issues) == 0 || len(out) >= page.Total || len(page.Issues) < 100 { break }
        startAt = len(out)
    }
    return out, nil
}

// Projects lists projects visible to the configured account.
func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
    var raw []struct {
        ID   string `json:"id"`
        Key  string `json:"key"`
        Name string `json:"name"`
    }
    if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/project", nil), &raw); err != nil { return nil, err }
    out := make([]domain.Project, 0, len(raw))
    for _, p := range raw { out = append(out, domain.Project{ID: p.ID, Key: p.Key, Name: p.Name}) }
    return out, nil
}
