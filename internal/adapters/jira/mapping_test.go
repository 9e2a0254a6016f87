package jira

import (
    "encoding/json"
    "strings"
    "testing"

    "github.com/rs/zerolog"

    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

const issueFixture = `{
  "key": "ABC-7",
  "fields": {
    "summary": "Fix login redirect",
    "description": {"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Users bounce back "},{"type":"text","text":"to the login page."}]}]},
    "created": "2024-03-01T09:00:00.000+0000",
    "status": {"name": "Closed"},
    "issuetype": {"name": "Bug"},
    "assignee": {"accountId": "u1", "displayName": "Dana", "emailAddress": "dana@example.com", "avatarUrls": {"48x48": "https://a/48"}},
    "labels": ["auth"],
    "components": [{"name": "web"}],
    "customfield_10016": "3.5"
  },
  "changelog": {
    "histories": [
      {
        "created": "2024-03-06T10:00:00.000+0000",
        "author": {"accountId": "u1", "displayName": "Dana"},
        "items": [{"field": "status", "fromString": "In Progress", "toString": "Done"}]
      },
      {
        "created": "2024-03-03T10:00:00.000+0000",
        "items": [
          {"field": "status", "fromString": "To Do", "toString": "In Review"},
          {"field": "Story Points", "fromString": "", "toString": "3.5"}
        ]
      },
      {
        "created": "2024-03-02T10:00:00.000+0000",
        "items": [{"field": "status", "fromString": "Backlog", "toString": "To Do"}]
      }
    ]
  }
}`

func testClient() *Client {
    return &Client{baseURL: "https://example.atlassian.net", log: zerolog.Nop()}
}

func TestMapIssue_FullLifecycle(t *testing.T) {
    var issue rawIssue
    if err := json.Unmarshal([]byte(issueFixture), &issue); err != nil { t.Fatal(err) }
    tk := testClient().mapIssue(&issue)

    if tk.Key != "ABC-7" { t.Fatalf("key = %q", tk.Key) }
    if tk.JiraURL != "https://example.atlassian.net/browse/ABC-7" { t.Fatalf("url = %q", tk.JiraURL) }
    if !strings.Contains(tk.Description, "Users bounce back to the login page.") {
        t.Fatalf("description = %q", tk.Description)
    }
    if tk.Points == nil || *tk.Points != 3.5 { t.Fatalf("points = %v", tk.Points) }
    if tk.Assignee.Name != "Dana" || tk.Assignee.ID != "u1" { t.Fatalf("assignee = %#v", tk.Assignee) }
    if tk.IssueType != "Bug" { t.Fatalf("issue type = %q", tk.IssueType) }
    if tk.CurrentStatus != domain.StatusDone { t.Fatalf("current status = %q", tk.CurrentStatus) }

    // history sorted ascending regardless of changelog order
    if len(tk.StatusHistory) != 3 { t.Fatalf("history len = %d", len(tk.StatusHistory)) }
    for i := 1; i < len(tk.StatusHistory); i++ {
        if tk.StatusHistory[i].Timestamp.Before(tk.StatusHistory[i-1].Timestamp) {
            t.Fatalf("history not sorted: %#v", tk.StatusHistory)
        }
    }

    // To Do -> In Progress -> zero-width Done
    if len(tk.StateSegments) != 3 { t.Fatalf("segments = %#v", tk.StateSegments) }
    if tk.StateSegments[0].Status != domain.StatusToDo || tk.StateSegments[1].Status != domain.StatusInProgress {
        t.Fatalf("segments = %#v", tk.StateSegments)
    }
    last := tk.StateSegments[2]
    if last.Status != domain.StatusDone || last.EndDate == nil || !last.EndDate.Equal(last.StartDate) {
        t.Fatalf("done segment = %#v", last)
    }

    if tk.EndDate == nil || !tk.EndDate.Equal(last.StartDate) { t.Fatalf("end = %v", tk.EndDate) }
    if !tk.StartDate.Equal(tk.StateSegments[0].StartDate) { t.Fatalf("start = %v", tk.StartDate) }

    if len(tk.PointsHistory) != 1 || tk.PointsHistory[0].To == nil || *tk.PointsHistory[0].To != 3.5 {
        t.Fatalf("points history = %#v", tk.PointsHistory)
    }
}

func TestMapIssue_NoChangelogFallsBackToCreated(t *testing.T) {
    var issue rawIssue
    if err := json.Unmarshal([]byte(`{"key":"ABC-9","fields":{"summary":"s","created":"2024-03-01T09:00:00.000+0000","status":{"name":"Weird Status"}}}`), &issue); err != nil {
        t.Fatal(err)
    }
    tk := testClient().mapIssue(&issue)
    if len(tk.StateSegments) != 0 { t.Fatalf("segments = %#v", tk.StateSegments) }
    if tk.StartDate.IsZero() || tk.EndDate != nil { t.Fatalf("span = %v %v", tk.StartDate, tk.EndDate) }
    if tk.Assignee.Name != "Unassigned" { t.Fatalf("assignee = %q", tk.Assignee.Name) }
    if tk.IssueType != "Unknown" { t.Fatalf("type = %q", tk.IssueType) }
    if tk.CurrentStatus != "Weird Status" { t.Fatalf("status = %q", tk.CurrentStatus) }
}

func TestPointValue_NumberStringNull(t *testing.T) {
    var f rawFields
    if err := json.Unmarshal([]byte(`{"customfield_10028": 5, "customfield_10016": "8", "customfield_10026": null}`), &f); err != nil {
        t.Fatal(err)
    }
    if f.Points10028.Value == nil || *f.Points10028.Value != 5 { t.Fatalf("number: %v", f.Points10028.Value) }
    if f.Points10016.Value == nil || *f.Points10016.Value != 8 { t.Fatalf("string: %v", f.Points10016.Value) }
    if f.Points10026.Value != nil { t.Fatalf("null: %v", f.Points10026.Value) }
    if storyPoints(&f) == nil || *storyPoints(&f) != 5 { t.Fatalf("priority probe failed") }
}

func TestBuildWindowJQL(t *testing.T) {
    jql := BuildWindowJQL("ABC-123", "2024-02-01", "2024-02-29", []string{"Dana"})
    for _, want := range []string{
        `project = "ABC"`,
        `created >= "2024-02-01"`,
        `status changed DURING ("2024-02-01", "2024-02-29")`,
        `status NOT IN (Done, Closed, Resolved)`,
        `assignee in ("Dana")`,
        "ORDER BY updated DESC",
    } {
        if !strings.Contains(jql, want) { t.Fatalf("missing %q in %q", want, jql) }
    }

    bare := BuildWindowJQL("", "2024-02-01", "2024-02-29", nil)
    if strings.Contains(bare, "project =") || strings.Contains(bare, "assignee in") {
        t.Fatalf("unexpected clauses: %q", bare)
    }
}
