package repo

import (
    "context"
    "errors"
    "time"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"

    "github.com/twinoxen/jira-task-calendar/internal/config"
    "github.com/twinoxen/jira-task-calendar/internal/domain"
)

type DB struct {
    Pool *pgxpool.Pool
    log  zerolog.Logger
}

func MustOpen(ctx context.Context, cfg config.Config, log zerolog.Logger) *DB {
    pool, err := pgxpool.New(ctx, cfg.DBDSN)
    if err != nil { log.Fatal().Err(err).Msg("db connect failed") }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil { log.Fatal().Err(err).Msg("db ping failed") }
    return &DB{Pool: pool, log: log}
}

func (d *DB) Close() { d.Pool.Close() }

// Repository caches raw ingested tickets and their status events so reports
// can still be served when Jira is unreachable. Derived segments and metrics
// are never stored; the engine recomputes them from events on every read.
type Repository struct {
    db  *DB
    log zerolog.Logger
}

func NewRepository(d *DB, log zerolog.Logger) *Repository { return &Repository{db: d, log: log} }

func (r *Repository) TryAdvisoryLock(ctx context.Context, key int64) (bool, error) {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok)
    return ok, err
}

func (r *Repository) AdvisoryUnlock(ctx context.Context, key int64) error {
    var ok bool
    err := r.db.Pool.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", key).Scan(&ok)
    if !ok && err == nil { return errors.New("advisory unlock returned false") }
    return err
}

func (r *Repository) UpsertTicket(ctx context.Context, t domain.Ticket) error {
    const q = `
        INSERT INTO tickets(key, title, description, points, assignee_id, assignee_name,
            assignee_email, assignee_avatar_url, current_status_raw, issue_type, labels,
            components, jira_url, fetched_at)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now())
        ON CONFLICT(key) DO UPDATE SET
            title=EXCLUDED.title,
            description=EXCLUDED.description,
            points=EXCLUDED.points,
            assignee_id=EXCLUDED.assignee_id,
            assignee_name=EXCLUDED.assignee_name,
            assignee_email=EXCLUDED.assignee_email,
            assignee_avatar_url=EXCLUDED.assignee_avatar_url,
            current_status_raw=EXCLUDED.current_status_raw,
            issue_type=EXCLUDED.issue_type,
            labels=EXCLUDED.labels,
            components=EXCLUDED.components,
            jira_url=EXCLUDED.jira_url,
            fetched_at=now()`
    _, err := r.db.Pool.Exec(ctx, q, t.Key, t.Title, t.Description, t.Points,
        t.Assignee.ID, t.Assignee.Name, t.Assignee.Email, t.Assignee.AvatarURL,
        t.CurrentStatus, t.IssueType, t.Labels, t.Components, t.JiraURL)
    return err
}

func (r *Repository) BulkInsertStatusEvents(ctx context.Context, key string, events []domain.StatusChange) error {
    if len(events) == 0 { return nil }
    batch := &pgx.Batch{}
    const q = `INSERT INTO status_events(ticket_key, status, at, author_name)
        VALUES($1,$2,$3,$4)
        ON CONFLICT (ticket_key, status, at) DO NOTHING`
    for _, e := range events {
        author := ""
        if e.Author != nil { author = e.Author.Name }
        batch.Queue(q, key, e.Status, e.Timestamp, author)
    }
    br := r.db.Pool.SendBatch(ctx, batch)
    defer br.Close()
    for range events { if _, err := br.Exec(); err != nil { return err } }
    return nil
}

// ListCachedTickets returns the raw cached ticket rows, without status
// events or derived data.
func (r *Repository) ListCachedTickets(ctx context.Context) ([]domain.Ticket, error) {
    rows, err := r.db.Pool.Query(ctx, `SELECT key, title, COALESCE(description,''), points,
        COALESCE(assignee_id,''), COALESCE(assignee_name,''), COALESCE(assignee_email,''),
        COALESCE(assignee_avatar_url,''), COALESCE(current_status_raw,''), COALESCE(issue_type,''),
        labels, components, COALESCE(jira_url,'') FROM tickets ORDER BY key`)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.Ticket
    for rows.Next() {
        var t domain.Ticket
        if err := rows.Scan(&t.Key, &t.Title, &t.Description, &t.Points,
            &t.Assignee.ID, &t.Assignee.Name, &t.Assignee.Email, &t.Assignee.AvatarURL,
            &t.CurrentStatus, &t.IssueType, &t.Labels, &t.Components, &t.JiraURL); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// LoadStatusEvents returns the cached raw events of one ticket, unordered.
func (r *Repository) LoadStatusEvents(ctx context.Context, key string) ([]domain.StatusChange, error) {
    rows, err := r.db.Pool.Query(ctx,
        `SELECT status, at, COALESCE(author_name,'') FROM status_events WHERE ticket_key = $1`, key)
    if err != nil { return nil, err }
    defer rows.Close()
    var out []domain.StatusChange
    for rows.Next() {
        var e domain.StatusChange
        var author string
        if err := rows.Scan(&e.Status, &e.Timestamp, &author); err != nil { return nil, err }
        if author != "" { e.Author = &domain.User{Name: author} }
        out = append(out, e)
    }
    return out, rows.Err()
}

func (r *Repository) StartJobRun(ctx context.Context, jql string) (int64, error) {
    var id int64
    err := r.db.Pool.QueryRow(ctx,
        `INSERT INTO job_runs(started_at, jql) VALUES(now(), $1) RETURNING id`, jql).Scan(&id)
    return id, err
}

func (r *Repository) FinishJobRun(ctx context.Context, id int64, ticketsFetched, prsFetched int, success bool, errStr string) error {
    _, err := r.db.Pool.Exec(ctx,
        `UPDATE job_runs SET finished_at=now(), tickets_fetched=$2, prs_fetched=$3, success=$4, error=$5 WHERE id=$1`,
        id, ticketsFetched, prsFetched, success, errStr)
    return err
}

type LastRun struct {
    ID             int64      `json:"id"`
    StartedAt      time.Time  `json:"started_at"`
    FinishedAt     *time.Time `json:"finished_at"`
    TicketsFetched int        `json:"tickets_fetched"`
    PRsFetched     int        `json:"prs_fetched"`
    Success        *bool      `json:"success"`
    Error          string     `json:"error"`
}

func (r *Repository) GetLastRun(ctx context.Context) (*LastRun, error) {
    row := r.db.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at,
        COALESCE(tickets_fetched,0), COALESCE(prs_fetched,0), success, COALESCE(error,'')
        FROM job_runs ORDER BY id DESC LIMIT 1`)
    var lr LastRun
    if err := row.Scan(&lr.ID, &lr.StartedAt, &lr.FinishedAt, &lr.TicketsFetched, &lr.PRsFetched, &lr.Success, &lr.Error); err != nil {
        if errors.Is(err, pgx.ErrNoRows) { return nil, nil }
        return nil, err
    }
    return &lr, nil
}
