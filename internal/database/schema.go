package database

// Schema Takeout 导入所需的最小持久化模式
// - import_log: content_hash 唯一，拒绝重复归档
// - daily_metrics: 每个日历日一行，所有指标列可空
// - metric_sources / sleep_bucket_entries / metric_conflicts: 按 import_id 归档的诊断表
const Schema = `
CREATE TABLE IF NOT EXISTS import_log (
    import_id     UUID PRIMARY KEY,
    content_hash  TEXT NOT NULL UNIQUE,
    file_name     TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    timezone_used TEXT NOT NULL DEFAULT '',
    write_mode    TEXT NOT NULL DEFAULT 'fill_missing',
    days_inserted INTEGER NOT NULL DEFAULT 0,
    days_updated  INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS daily_metrics (
    date                DATE PRIMARY KEY,
    steps               DOUBLE PRECISION,
    energy_burned_kcal  DOUBLE PRECISION,
    zone1_min           DOUBLE PRECISION,
    zone2_min           DOUBLE PRECISION,
    zone3_min           DOUBLE PRECISION,
    below_zone1_min     DOUBLE PRECISION,
    active_zone_minutes DOUBLE PRECISION,
    cardio_min          DOUBLE PRECISION,
    resting_hr          DOUBLE PRECISION,
    sleep_minutes       DOUBLE PRECISION,
    hrv                 DOUBLE PRECISION,
    entry_source        TEXT NOT NULL DEFAULT 'import',
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS metric_sources (
    id         BIGSERIAL PRIMARY KEY,
    import_id  UUID NOT NULL REFERENCES import_log(import_id) ON DELETE CASCADE,
    date       DATE NOT NULL,
    metric     TEXT NOT NULL,
    source     TEXT NOT NULL,
    files      JSONB NOT NULL DEFAULT '[]',
    row_count  INTEGER NOT NULL DEFAULT 0,
    value      DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_metric_sources_date ON metric_sources(date, metric);

CREATE TABLE IF NOT EXISTS sleep_bucket_entries (
    id           BIGSERIAL PRIMARY KEY,
    import_id    UUID NOT NULL REFERENCES import_log(import_id) ON DELETE CASCADE,
    date         DATE NOT NULL,
    source       TEXT NOT NULL,
    raw_end_time TEXT NOT NULL DEFAULT '',
    offset_min   INTEGER,
    minutes      DOUBLE PRECISION NOT NULL DEFAULT 0,
    main_sleep   BOOLEAN NOT NULL DEFAULT TRUE,
    suspicious   BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_sleep_bucket_entries_date ON sleep_bucket_entries(date);

CREATE TABLE IF NOT EXISTS metric_conflicts (
    id         BIGSERIAL PRIMARY KEY,
    import_id  UUID NOT NULL REFERENCES import_log(import_id) ON DELETE CASCADE,
    date       DATE NOT NULL,
    metric     TEXT NOT NULL,
    csv_value  DOUBLE PRECISION,
    json_value DOUBLE PRECISION,
    resolution TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_metric_conflicts_date ON metric_conflicts(date, metric);
`
