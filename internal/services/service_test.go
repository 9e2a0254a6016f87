package services

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/rs/zerolog"

    "github.com/twinoxen/jira-task-calendar/internal/config"
    "github.com/twinoxen/jira-task-calendar/internal/daterange"
    "github.com/twinoxen/jira-task-calendar/internal/domain"
    "github.com/twinoxen/jira-task-calendar/internal/report"
    "github.com/twinoxen/jira-task-calendar/internal/repo"
)

type fakeJira struct {
    tickets []domain.Ticket
    err     error
}

func (f *fakeJira) FetchTickets(ctx context.Context, jql string) ([]domain.Ticket, error) {
    return f.tickets, f.err
}
func (f *fakeJira) Projects(ctx context.Context) ([]domain.Project, error) { return nil, nil }

type fakeGitHub struct {
    prs []domain.PullRequest
    err error
}

func (f *fakeGitHub) SearchPullRequests(ctx context.Context, since time.Time) ([]domain.PullRequest, error) {
    return f.prs, f.err
}

type fakeStore struct {
    mu       sync.Mutex
    upserts  []string
    events   map[string]int
    finished bool
    success  bool

    cached       []domain.Ticket
    cachedEvents map[string][]domain.StatusChange
}

func newFakeStore() *fakeStore { return &fakeStore{events: map[string]int{}} }

func (f *fakeStore) UpsertTicket(ctx context.Context, t domain.Ticket) error {
    f.mu.Lock(); defer f.mu.Unlock()
    f.upserts = append(f.upserts, t.Key)
    return nil
}
func (f *fakeStore) BulkInsertStatusEvents(ctx context.Context, key string, events []domain.StatusChange) error {
    f.mu.Lock(); defer f.mu.Unlock()
    f.events[key] = len(events)
    return nil
}
func (f *fakeStore) StartJobRun(ctx context.Context, jql string) (int64, error) { return 1, nil }
func (f *fakeStore) FinishJobRun(ctx context.Context, id int64, ticketsFetched, prsFetched int, success bool, errStr string) error {
    f.mu.Lock(); defer f.mu.Unlock()
    f.finished = true
    f.success = success
    return nil
}
func (f *fakeStore) ListCachedTickets(ctx context.Context) ([]domain.Ticket, error) {
    return f.cached, nil
}
func (f *fakeStore) LoadStatusEvents(ctx context.Context, key string) ([]domain.StatusChange, error) {
    return f.cachedEvents[key], nil
}
func (f *fakeStore) GetLastRun(ctx context.Context) (*repo.LastRun, error) { return nil, nil }

func pts(v float64) *float64 { return &v }

func testWindow() daterange.Window {
    start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
    return daterange.Window{Start: start, End: start.AddDate(0, 0, 6)}
}

func TestFetchWindow_AttachesPRs(t *testing.T) {
    jc := &fakeJira{tickets: []domain.Ticket{{Key: "ABC-1"}, {Key: "ABC-2"}}}
    gh := &fakeGitHub{prs: []domain.PullRequest{{Number: 7, LinkedTicketKeys: []string{"ABC-2"}}}}
    svc := New(config.Config{}, zerolog.Nop(), newFakeStore(), jc, gh)

    tickets, prs, err := svc.FetchWindow(context.Background(), testWindow(), "ABC", nil)
    if err != nil { t.Fatal(err) }
    if len(tickets) != 2 || len(prs) != 1 { t.Fatalf("got %d tickets %d prs", len(tickets), len(prs)) }
    if len(tickets[1].PRs) != 1 || tickets[1].PRs[0].Number != 7 { t.Fatalf("prs = %#v", tickets[1].PRs) }
    if len(tickets[0].PRs) != 0 { t.Fatalf("prs = %#v", tickets[0].PRs) }
}

func TestFetchWindow_GitHubErrorIsNotFatal(t *testing.T) {
    jc := &fakeJira{tickets: []domain.Ticket{{Key: "ABC-1"}}}
    gh := &fakeGitHub{err: errors.New("rate limited")}
    svc := New(config.Config{}, zerolog.Nop(), newFakeStore(), jc, gh)

    tickets, prs, err := svc.FetchWindow(context.Background(), testWindow(), "ABC", nil)
    if err != nil { t.Fatal(err) }
    if len(tickets) != 1 || len(prs) != 0 { t.Fatalf("got %d tickets %d prs", len(tickets), len(prs)) }
}

func TestFetchWindow_JiraErrorIsFatal(t *testing.T) {
    jc := &fakeJira{err: errors.New("boom")}
    svc := New(config.Config{}, zerolog.Nop(), newFakeStore(), jc, &fakeGitHub{})
    if _, _, err := svc.FetchWindow(context.Background(), testWindow(), "ABC", nil); err == nil {
        t.Fatal("expected error")
    }
}

func TestFetchWindow_FallsBackToSnapshotWhenJiraDown(t *testing.T) {
    store := newFakeStore()
    base := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
    store.cached = []domain.Ticket{{Key: "ABC-1", Title: "cached", CurrentStatus: "Closed"}}
    store.cachedEvents = map[string][]domain.StatusChange{
        "ABC-1": {
            {Status: "In Progress", Timestamp: base},
            {Status: "Done", Timestamp: base.AddDate(0, 0, 2)},
        },
    }
    svc := New(config.Config{}, zerolog.Nop(), store, &fakeJira{err: errors.New("down")}, &fakeGitHub{})

    tickets, _, err := svc.FetchWindow(context.Background(), testWindow(), "ABC", nil)
    if err != nil { t.Fatal(err) }
    if len(tickets) != 1 || tickets[0].Title != "cached" { t.Fatalf("tickets = %#v", tickets) }
    if tickets[0].CurrentStatus != domain.StatusDone { t.Fatalf("status = %q", tickets[0].CurrentStatus) }
    if len(tickets[0].StateSegments) != 2 { t.Fatalf("segments = %#v", tickets[0].StateSegments) }
    if tickets[0].EndDate == nil { t.Fatal("end date not derived from cached events") }
}

func TestReport_Summary(t *testing.T) {
    svc := New(config.Config{}, zerolog.Nop(), newFakeStore(), &fakeJira{}, &fakeGitHub{})
    done := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
    tickets := []domain.Ticket{
        {Key: "ABC-1", Points: pts(5), CurrentStatus: domain.StatusDone, EndDate: &done},
        {Key: "ABC-2", Points: pts(3), CurrentStatus: domain.StatusInProgress},
        {Key: "ABC-3", CurrentStatus: domain.StatusToDo},
    }
    r := svc.Report(testWindow(), tickets, done)
    if r.TotalPoints != 8 { t.Fatalf("total = %v", r.TotalPoints) }
    if r.CompletedCount != 1 || r.CompletedPoints != 5 { t.Fatalf("completed = %d/%v", r.CompletedCount, r.CompletedPoints) }
    if len(r.ActiveDays) != 3 { t.Fatalf("active days = %#v", r.ActiveDays) }
}

func TestBreakdowns_FiltersBeforeGrouping(t *testing.T) {
    svc := New(config.Config{}, zerolog.Nop(), newFakeStore(), &fakeJira{}, &fakeGitHub{})
    tickets := []domain.Ticket{
        {Key: "ABC-1", Title: "login fix", IssueType: "Bug", Points: pts(2)},
        {Key: "ABC-2", Title: "new dashboard", IssueType: "Story", Points: pts(5)},
    }
    b := svc.Breakdowns(tickets, report.Criteria{SearchTerm: "login"})
    if len(b.Type) != 1 || b.Type[0].Name != "Bug" { t.Fatalf("type = %#v", b.Type) }
    if len(b.Points) != 1 { t.Fatalf("points = %#v", b.Points) }
}

func TestRefreshSnapshot_PersistsTicketsAndEvents(t *testing.T) {
    now := time.Now()
    jc := &fakeJira{tickets: []domain.Ticket{
        {Key: "ABC-1", StatusHistory: []domain.StatusChange{{Status: "To Do", Timestamp: now}}},
        {Key: "ABC-2"},
    }}
    store := newFakeStore()
    svc := New(config.Config{WorkersFetch: 2}, zerolog.Nop(), store, jc, &fakeGitHub{})

    if err := svc.RefreshSnapshot(context.Background()); err != nil { t.Fatal(err) }
    if len(store.upserts) != 2 { t.Fatalf("upserts = %v", store.upserts) }
    if store.events["ABC-1"] != 1 { t.Fatalf("events = %v", store.events) }
    if !store.finished || !store.success { t.Fatalf("run not finished ok: %#v", store) }
}
