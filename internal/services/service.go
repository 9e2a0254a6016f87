/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "sync"
    "time"

    "github.com/rs/zerolog"

    "github.com/twinoxen/jira-task-calendar/internal/adapters/github"
    "github.com/twinoxen/jira-task-calendar/internal/adapters/jira"
    "github.com/twinoxen/jira-task-calendar/internal/config"
    "github.com/twinoxen/jira-task-calendar/internal/daterange"
    "github.com/twinoxen/jira-task-calendar/internal/domain"
    "github.com/twinoxen/jira-task-calendar/internal/report"
    "github.com/twinoxen/jira-task-calendar/internal/repo"
    "github.com/twinoxen/jira-task-calendar/internal/timeline"
)

type TicketSource interface {
    FetchTickets(ctx context.Context, jql string) ([]domain.Ticket, error)
    Projects(ctx context.Context) ([]domain.Project, error)
}

type PullRequestSource interface {
    SearchPullRequests(ctx context.Context, since time.Time) ([]domain.PullRequest, error)
}

type SnapshotStore interface {
    UpsertTicket(ctx context.Context, t domain.Ticket) error
    BulkInsertStatusEvents(ctx context.Context, key string, events []domain.StatusChange) error
    ListCachedTickets(ctx context.Context) ([]domain.Ticket, error)
    LoadStatusEvents(ctx context.Context, key string) ([]domain.StatusChange, error)
    StartJobRun(ctx context.Context, jql string) (int64, error)
    FinishJobRun(ctx context.Context, id int64, ticketsFetched, prsFetched int, success bool, errStr string) error
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
}

type Service struct {
    cfg  config.Config
    log  zerolog.Logger
    repo SnapshotStore
    jira TicketSource
    gh   PullRequestSource
}

func New(cfg config.Config, log zerolog.Logger, store SnapshotStore, jiraClient TicketSource, gh PullRequestSource) *Service {
    return &Service{cfg: cfg, log: log, repo: store, jira: jiraClient, gh: gh}
}

// WindowReport is everything the dashboard needs for one reporting window.
type WindowReport struct {
    Window          daterange.Window        `json:"window"`
    Tickets         []domain.Ticket         `json:"tickets"`
    TotalPoints     float64                 `json:"total_points"`
    CompletedCount  int                     `json:"completed_count"`
    CompletedPoints float64                 `json:"completed_points"`
    AvgCycleTime    *float64                `json:"avg_cycle_time_days"`
    ActiveDays      map[string]int          `json:"active_days"`
}

// BreakdownReport carries every rollup dimension over one filtered set.
type BreakdownReport struct {
    Type      []domain.BreakdownEntry  `json:"type"`
    Member    []domain.BreakdownEntry  `json:"member"`
    Label     []domain.BreakdownEntry  `json:"label"`
    Component []domain.BreakdownEntry  `json:"component"`
    Points    []domain.PointsSizeEntry `json:"points"`
}

// FetchWindow pulls tickets and pull requests for a reporting window in
// parallel, then attaches PRs to the tickets they reference.
func (s *Service) FetchWindow(ctx context.Context, w daterange.Window, project string, users []string) ([]domain.Ticket, []domain.PullRequest, error) {
    if project == "" { project = s.cfg.JiraProject }
    jql := jira.BuildWindowJQL(project, daterange.FormatLocalDate(w.Start), daterange.FormatLocalDate(w.End), users)

    var (
        wg      sync.WaitGroup
        tickets []domain.Ticket
        prs     []domain.PullRequest
        tErr    error
    )
    wg.Add(2)
    go func() {
        defer wg.Done()
        tickets, tErr = s.jira.FetchTickets(ctx, jql)
    }()
    go func() {
        defer wg.Done()
        var err error
        prs, err = s.gh.SearchPullRequests(ctx, w.Start)
        // PRs are decoration on the report; a GitHub outage should not take
        // the tickets down with it
        if err != nil { s.log.Error().Err(err).Msg("github fetch failed") }
    }()
    wg.Wait()
    if tErr != nil {
        cached, cErr := s.loadFromSnapshot(ctx)
        if cErr != nil || len(cached) == 0 { return nil, nil, tErr }
        s.log.Warn().Err(tErr).Int("tickets", len(cached)).Msg("jira unreachable, serving cached snapshot")
        tickets = cached
    }

    github.MatchPullRequests(tickets, prs)
    return tickets, prs, nil
}

// loadFromSnapshot rebuilds tickets from the raw cached rows and status
// events, recomputing tracked history, segments and span. The snapshot may
// be stale and is not window-filtered; it is a degraded fallback, not a
// second source of truth.
func (s *Service) loadFromSnapshot(ctx context.Context) ([]domain.Ticket, error) {
    tickets, err := s.repo.ListCachedTickets(ctx)
    if err != nil { return nil, err }
    for i := range tickets {
        events, err := s.repo.LoadStatusEvents(ctx, tickets[i].Key)
        if err != nil { return nil, err }
        tracked := timeline.BuildTrackedHistory(events)
        segments := timeline.BuildSegments(tracked)
        start, end := timeline.TicketSpan(time.Time{}, tracked, segments)
        tickets[i].StatusHistory = timeline.SortStatusHistory(events)
        tickets[i].StateSegments = segments
        tickets[i].StartDate = start
        tickets[i].EndDate = end
        tickets[i].CurrentStatus = timeline.CurrentStatus(tickets[i].CurrentStatus)
    }
    return tickets, nil
}

// Report assembles the window report over an already-filtered ticket set.
func (s *Service) Report(w daterange.Window, tickets []domain.Ticket, now time.Time) WindowReport {
    completed := report.CompletedTickets(tickets)
    active := make(map[string]int, len(tickets))
    for i := range tickets {
        active[tickets[i].Key] = timeline.ActiveDays(tickets[i].StateSegments, now)
    }
    return WindowReport{
        Window:          w,
        Tickets:         tickets,
        TotalPoints:     report.TotalPoints(tickets),
        CompletedCount:  len(completed),
        CompletedPoints: report.TotalPoints(completed),
        AvgCycleTime:    report.AvgCycleTime(tickets),
        ActiveDays:      active,
    }
}

// Breakdowns filters the set and computes every rollup dimension.
func (s *Service) Breakdowns(tickets []domain.Ticket, c report.Criteria) BreakdownReport {
    filtered := report.Filter(tickets, c)
    return BreakdownReport{
        Type:      report.Breakdown(filtered, report.ByType),
        Member:    report.Breakdown(filtered, report.ByAssignee),
        Label:     report.Breakdown(filtered, report.ByLabel),
        Component: report.Breakdown(filtered, report.ByComponent),
        Points:    report.PointsSizeDistribution(filtered),
    }
}

func (s *Service) Projects(ctx context.Context) ([]domain.Project, error) {
    return s.jira.Projects(ctx)
}

func (s *Service) GetLastRun(ctx context.Context) (*repo.LastRun, error) {
    return s.repo.GetLastRun(ctx)
}

// RefreshSnapshot fetches the trailing month and caches raw tickets and
// status events in Postgres with a bounded worker pool.
func (s *Service) RefreshSnapshot(ctx context.Context) error {
    now := time.Now()
    w := daterange.Window{Start: now.AddDate(0, -1, 0), End: now}
    jql := jira.BuildWindowJQL(s.cfg.JiraProject, daterange.FormatLocalDate(w.Start), daterange.FormatLocalDate(w.End), nil)

    runID, err := s.repo.StartJobRun(ctx, jql)
    if err != nil { s.log.Error().Err(err).Msg("start job run failed") }
    var ticketCount, prCount int
    var refreshErr error
    defer func() {
        if runID != 0 {
            errStr := ""
            if refreshErr != nil { errStr = fmt.Sprintf("%v", refreshErr) }
            _ = s.repo.FinishJobRun(ctx, runID, ticketCount, prCount, refreshErr == nil, errStr)
        }
    }()

    tickets, prs, err := s.FetchWindow(ctx, w, "", nil)
    if err != nil { refreshErr = err; return err }
    ticketCount = len(tickets)
    prCount = len(prs)

    workerCount := s.cfg.WorkersFetch
    if workerCount <= 0 { workerCount = 6 }
    jobs := make(chan *domain.Ticket)
    var wg sync.WaitGroup
    for n := 0; n < workerCount; n++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for t := range jobs {
                if err := s.repo.UpsertTicket(ctx, *t); err != nil {
                    s.log.Error().Err(err).Str("key", t.Key).Msg("snapshot upsert failed")
                    continue
                }
                if err := s.repo.BulkInsertStatusEvents(ctx, t.Key, t.StatusHistory); err != nil {
                    s.log.Error().Err(err).Str("key", t.Key).Msg("snapshot events failed")
                }
            }
        }()
    }
    for i := range tickets { jobs <- &tickets[i] }
    close(jobs)
    wg.Wait()

    s.log.Info().Int("tickets", ticketCount).Int("prs", prCount).Msg("snapshot refreshed")
    return nil
}
