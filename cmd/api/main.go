/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"

    "github.com/twinoxen/jira-task-calendar/internal/adapters/github"
    "github.com/twinoxen/jira-task-calendar/internal/adapters/jira"
    "github.com/twinoxen/jira-task-calendar/internal/config"
    apphttp "github.com/twinoxen/jira-task-calendar/internal/http"
    "github.com/twinoxen/jira-task-calendar/internal/jobs"
    "github.com/twinoxen/jira-task-calendar/internal/logger"
    "github.com/twinoxen/jira-task-calendar/internal/repo"
    "github.com/twinoxen/jira-task-calendar/internal/services"
)

func main() {
    _ = godotenv.Load()
    cfg := config.Load()
    log := logger.New(cfg)
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    // DB
    db := repo.MustOpen(ctx, cfg, log)
    defer db.Close()

    // Adapters
    jc := jira.NewClient(cfg, log)
    gh := github.NewClient(cfg, log)

    // Services
    repository := repo.NewRepository(db, log)
    svc := services.New(cfg, log, repository, jc, gh)

    // HTTP server (Gin)
    router := apphttp.NewRouter(cfg, log, svc)

    // Cron
    cron := jobs.NewCron(cfg, log, svc, repository)
    cron.Start()
    defer cron.Stop()

    // graceful shutdown
    errCh := make(chan error, 1)
    go func() { errCh <- router.Run(cfg.HTTPAddr) }()

    sigCh := make(chan os.Signal, 1)
    signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

    select {
    case <-sigCh:
        log.Info().Msg("shutting down...")
    case err := <-errCh:
        if err != nil { log.Error().Err(err).Msg("http server error") }
    }

    time.Sleep(500 * time.Millisecond)
}
