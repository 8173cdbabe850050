package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    run_id               TEXT PRIMARY KEY,
    started_at           TEXT NOT NULL,
    finished_at          TEXT NOT NULL,
    dry_run              INTEGER NOT NULL DEFAULT 0,
    status               TEXT NOT NULL,
    error                TEXT,
    aws_records          INTEGER NOT NULL DEFAULT 0,
    azure_records        INTEGER NOT NULL DEFAULT 0,
    currency             TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS project_totals (
    run_id               TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
    project              TEXT NOT NULL,
    aws_amount           TEXT NOT NULL,
    azure_amount         TEXT NOT NULL,
    total                TEXT NOT NULL,
    forecast             TEXT NOT NULL,
    budget               TEXT NOT NULL,
    used_percent         INTEGER NOT NULL DEFAULT 0,
    recipients           INTEGER NOT NULL DEFAULT 0,
    sent                 INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, project)
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_project_totals_project ON project_totals(project);
`
