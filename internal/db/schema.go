package db

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    email         TEXT UNIQUE NOT NULL,
    full_name     TEXT,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'member' CHECK(role IN ('member','admin')),
    created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS investigations (
    id                 TEXT PRIMARY KEY,
    user_id            TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    session_id         TEXT NOT NULL,
    title              TEXT NOT NULL,
    brief              TEXT NOT NULL,
    mode               TEXT NOT NULL CHECK(mode IN ('quick','detailed')),
    status             TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','active','completed','partial','failed')),
    summary            TEXT,
    overall_bias_score TEXT,
    partial_reason     TEXT,
    created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
    started_at         DATETIME,
    updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_investigations_user ON investigations(user_id);
CREATE INDEX IF NOT EXISTS idx_investigations_status ON investigations(status);

CREATE TABLE IF NOT EXISTS sources (
    id                TEXT PRIMARY KEY,
    investigation_id  TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
    url               TEXT NOT NULL,
    title             TEXT,
    content_snippet   TEXT,
    credibility_score INTEGER CHECK(credibility_score BETWEEN 1 AND 5),
    bias_score        TEXT,
    is_user_provided  INTEGER NOT NULL DEFAULT 0 CHECK(is_user_provided IN (0, 1)),
    analyzed_at       DATETIME,
    created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
    UNIQUE(investigation_id, url)
);

CREATE INDEX IF NOT EXISTS idx_sources_investigation ON sources(investigation_id);

CREATE TABLE IF NOT EXISTS claims (
    id               TEXT PRIMARY KEY,
    investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
    claim_text       TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'unverified' CHECK(status IN ('unverified','verified','contradicted')),
    evidence_count   INTEGER NOT NULL DEFAULT 0,
    created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
    updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_claims_investigation ON claims(investigation_id);

CREATE TABLE IF NOT EXISTS claim_sources (
    claim_id  TEXT NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
    source_id TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    PRIMARY KEY (claim_id, source_id)
);

CREATE TABLE IF NOT EXISTS fact_checks (
    id            TEXT PRIMARY KEY,
    claim_id      TEXT NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
    source_id     TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    evidence_type TEXT NOT NULL CHECK(evidence_type IN ('supporting','contradicting')),
    evidence_text TEXT NOT NULL,
    created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_fact_checks_claim ON fact_checks(claim_id);
CREATE INDEX IF NOT EXISTS idx_fact_checks_source ON fact_checks(source_id);

CREATE TABLE IF NOT EXISTS timeline_events (
    id               TEXT PRIMARY KEY,
    investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
    event_date       DATETIME NOT NULL,
    event_text       TEXT NOT NULL,
    source_id        TEXT REFERENCES sources(id) ON DELETE SET NULL,
    created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_timeline_investigation ON timeline_events(investigation_id);
CREATE INDEX IF NOT EXISTS idx_timeline_date ON timeline_events(event_date);
`
