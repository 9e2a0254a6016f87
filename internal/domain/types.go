package domain

import "time"

// Canonical tracked states. Every other Jira status is invisible to the
// timeline metrics.
const (
    StatusToDo       = "To Do"
    StatusInProgress = "In Progress"
    StatusDone       = "Done"
)

type User struct {
    ID        string
    Name      string
    Email     string
    AvatarURL string
}

// StatusChange is one raw status transition from an issue changelog.
// Unordered on arrival; builders sort before use.
type StatusChange struct {
    Status    string
    Timestamp time.Time
    Author    *User
}

// StateSegment is a derived span of time a ticket spent in one tracked state.
// EndDate == nil means "still in this state"; a terminal Done segment is
// zero-width (EndDate == StartDate).
type StateSegment struct {
    Status    string
    StartDate time.Time
    EndDate   *time.Time
    Color     string
}

type PointsChange struct {
    From      *float64
    To        *float64
    Timestamp time.Time
}

type PullRequest struct {
    Number           int
    Title            string
    URL              string
    Repo             string
    Author           string
    CreatedAt        time.Time
    MergedAt         *time.Time
    ClosedAt         *time.Time
    Status           string // open | merged | closed
    LinkedTicketKeys []string
    Additions        int
    Deletions        int
    ChangedFiles     int
}

type Ticket struct {
    Key           string
    Title         string
    Description   string
    Points        *float64
    PointsHistory []PointsChange
    Assignee      User
    StartDate     time.Time
    EndDate       *time.Time
    StatusHistory []StatusChange
    CurrentStatus string
    StateSegments []StateSegment
    PRs           []PullRequest
    IssueType     string
    Labels        []string
    Components    []string
    JiraURL       string
}

// BreakdownEntry is one row of a grouped rollup; lives for a single
// aggregation call only.
type BreakdownEntry struct {
    Name             string
    Count            int
    Points           float64
    PercentOfPoints  int
    CompletedCount   int
    AvgCycleTimeDays *float64
}

// PointsSizeEntry is one bucket of the points-size distribution.
// Size == nil is the "Unestimated" bucket.
type PointsSizeEntry struct {
    Size           *float64
    Label          string
    Count          int
    PercentOfTotal int
}

type Project struct {
    Key  string
    Name string
    ID   string
}
