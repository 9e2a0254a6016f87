/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package http

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"

    "github.com/twinoxen/jira-task-calendar/internal/config"
    "github.com/twinoxen/jira-task-calendar/internal/daterange"
    "github.com/twinoxen/jira-task-calendar/internal/domain"
    "github.com/twinoxen/jira-task-calendar/internal/report"
    "github.com/twinoxen/jira-task-calendar/internal/repo"
    "github.com/twinoxen/jira-task-calendar/internal/services"
)

type service interface {
    FetchWindow(ctx context.Context, w daterange.Window, project string, users []string) ([]domain.Ticket, []domain.PullRequest, error)
    Report(w daterange.Window, tickets []domain.Ticket, now time.Time) services.WindowReport
    Breakdowns(tickets []domain.Ticket, c report.Criteria) services.BreakdownReport
    Projects(ctx context.Context) ([]domain.Project, error)
    GetLastRun(ctx context.Context) (*repo.LastRun, error)
    RefreshSnapshot(ctx context.Context) error
}

type Handlers struct {
    cfg config.Config
    log zerolog.Logger
    svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc any) *Handlers {
    return &Handlers{cfg: cfg, log: log, svc: svc.(service)}
}

func (h *Handlers) Healthz(c *gin.Context) {
    c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) Projects(c *gin.Context) {
    projects, err := h.svc.Projects(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// windowFromQuery builds the reporting window for a request. Explicit
// startDate/endDate win; otherwise mode+anchor drive a navigator. Custom
// bounds arrive as YYYY-MM-DD and are parsed as local dates.
func (h *Handlers) windowFromQuery(c *gin.Context) (daterange.Window, bool) {
    startStr := c.Query("startDate")
    endStr := c.Query("endDate")
    if startStr != "" && endStr != "" {
        start, err := daterange.ParseLocalDate(startStr)
        if err != nil {
            c.JSON(http.StatusBadRequest, gin.H{"error": "invalid startDate: " + startStr})
            return daterange.Window{}, false
        }
        end, err := daterange.ParseLocalDate(endStr)
        if err != nil {
            c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endDate: " + endStr})
            return daterange.Window{}, false
        }
        nav := daterange.New(daterange.ModeCustom, h.cfg.WeekStartsOn)
        nav.SetCustom(start, end)
        return nav.Window(), true
    }

    mode := daterange.Mode(c.DefaultQuery("mode", h.cfg.DefaultMode))
    nav := daterange.New(mode, h.cfg.WeekStartsOn)
    if anchorStr := c.Query("anchor"); anchorStr != "" {
        anchor, err := daterange.ParseLocalDate(anchorStr)
        if err != nil {
            c.JSON(http.StatusBadRequest, gin.H{"error": "invalid anchor: " + anchorStr})
            return daterange.Window{}, false
        }
        nav.Anchor = anchor
    }
    return nav.Window(), true
}

func criteriaFromQuery(c *gin.Context) report.Criteria {
    return report.Criteria{
        SearchTerm: c.Query("search"),
        Labels:     splitParam(c.Query("labels")),
        Components: splitParam(c.Query("components")),
        IssueTypes: splitParam(c.Query("types")),
    }
}

func splitParam(v string) []string {
    if strings.TrimSpace(v) == "" { return nil }
    parts := strings.Split(v, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}

func (h *Handlers) Tickets(c *gin.Context) {
    w, ok := h.windowFromQuery(c)
    if !ok { return }
    tickets, _, err := h.svc.FetchWindow(c.Request.Context(), w, c.Query("project"), splitParam(c.Query("users")))
    if err != nil {
        c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
        return
    }
    filtered := report.Filter(tickets, criteriaFromQuery(c))
    c.JSON(http.StatusOK, h.svc.Report(w, filtered, time.Now()))
}

func (h *Handlers) Breakdowns(c *gin.Context) {
    w, ok := h.windowFromQuery(c)
    if !ok { return }
    tickets, _, err := h.svc.FetchWindow(c.Request.Context(), w, c.Query("project"), splitParam(c.Query("users")))
    if err != nil {
        c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, h.svc.Breakdowns(tickets, criteriaFromQuery(c)))
}

// PullRequests lists the pull requests opened in the window, with their
// linked ticket keys.
func (h *Handlers) PullRequests(c *gin.Context) {
    w, ok := h.windowFromQuery(c)
    if !ok { return }
    _, prs, err := h.svc.FetchWindow(c.Request.Context(), w, c.Query("project"), splitParam(c.Query("users")))
    if err != nil {
        c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{"prs": prs})
}

// FilterOptions reports the distinct labels, components and issue types
// present in the window, for populating filter pickers.
func (h *Handlers) FilterOptions(c *gin.Context) {
    w, ok := h.windowFromQuery(c)
    if !ok { return }
    tickets, _, err := h.svc.FetchWindow(c.Request.Context(), w, c.Query("project"), splitParam(c.Query("users")))
    if err != nil {
        c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, gin.H{
        "labels":     report.AvailableLabels(tickets),
        "components": report.AvailableComponents(tickets),
        "types":      report.AvailableIssueTypes(tickets),
    })
}

func (h *Handlers) LastRun(c *gin.Context) {
    lr, err := h.svc.GetLastRun(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
        return
    }
    c.JSON(http.StatusOK, lr)
}

func (h *Handlers) RefreshNow(c *gin.Context) {
    // Run detached from the HTTP request to avoid context cancellation
    go func(){ _ = h.svc.RefreshSnapshot(context.Background()) }()
    c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
