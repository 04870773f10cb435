package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS technicians (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL UNIQUE,
    full_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS facilities (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    name          TEXT NOT NULL,
    client        TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    city          TEXT NOT NULL DEFAULT '',
    contact_name  TEXT NOT NULL DEFAULT '',
    contact_phone TEXT NOT NULL DEFAULT '',
    contact_email TEXT NOT NULL DEFAULT '',
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS islands (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    facility_id   INTEGER NOT NULL REFERENCES facilities(id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    designation   TEXT NOT NULL DEFAULT '',
    serial_number TEXT NOT NULL DEFAULT '',
    manufacturer  TEXT NOT NULL DEFAULT '',
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    UNIQUE(facility_id, name)
);

CREATE TABLE IF NOT EXISTS checklist_templates (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    module     TEXT NOT NULL,
    title      TEXT NOT NULL,
    position   INTEGER NOT NULL DEFAULT 0,
    active     INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS checkups (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid          TEXT NOT NULL UNIQUE,
    island_id     INTEGER NOT NULL REFERENCES islands(id),
    technician    TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'scheduled',
    scheduled_for TEXT,
    started_at    TEXT,
    completed_at  TEXT,
    summary       TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_checkups_status ON checkups(status);
CREATE INDEX IF NOT EXISTS idx_checkups_uuid ON checkups(uuid);

CREATE TABLE IF NOT EXISTS checkup_history (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    checkup_id INTEGER NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    old_status TEXT NOT NULL,
    new_status TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS check_items (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    checkup_id INTEGER NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    module     TEXT NOT NULL,
    title      TEXT NOT NULL,
    position   INTEGER NOT NULL DEFAULT 0,
    status     TEXT NOT NULL DEFAULT 'pending',
    comment    TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_check_items_checkup ON check_items(checkup_id);

CREATE TABLE IF NOT EXISTS spare_parts (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    checkup_id  INTEGER NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    part_number TEXT NOT NULL DEFAULT '',
    quantity    INTEGER NOT NULL DEFAULT 1,
    urgent      INTEGER NOT NULL DEFAULT 0,
    note        TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS photos (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid          TEXT NOT NULL UNIQUE,
    checkup_id    INTEGER NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    check_item_id INTEGER REFERENCES check_items(id) ON DELETE SET NULL,
    filename      TEXT NOT NULL,
    original_name TEXT NOT NULL DEFAULT '',
    caption       TEXT NOT NULL DEFAULT '',
    content_type  TEXT NOT NULL DEFAULT 'image/jpeg',
    size_bytes    INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_photos_checkup ON photos(checkup_id);

CREATE TABLE IF NOT EXISTS export_records (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid         TEXT NOT NULL UNIQUE,
    checkup_id   INTEGER NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    format       TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending',
    path         TEXT NOT NULL DEFAULT '',
    size_bytes   INTEGER NOT NULL DEFAULT 0,
    error_detail TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_export_records_checkup ON export_records(checkup_id);

CREATE TABLE IF NOT EXISTS backup_records (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    filename   TEXT NOT NULL,
    path       TEXT NOT NULL,
    size_bytes INTEGER NOT NULL DEFAULT 0,
    mode       TEXT NOT NULL DEFAULT 'manual',
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS outbox (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    topic      TEXT NOT NULL,
    payload    BLOB NOT NULL,
    msg_type   TEXT NOT NULL DEFAULT '',
    retries    INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at    TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS technicians (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    full_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS facilities (
    id            BIGSERIAL PRIMARY KEY,
    name          TEXT NOT NULL,
    client        TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    city          TEXT NOT NULL DEFAULT '',
    contact_name  TEXT NOT NULL DEFAULT '',
    contact_phone TEXT NOT NULL DEFAULT '',
    contact_email TEXT NOT NULL DEFAULT '',
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS islands (
    id            BIGSERIAL PRIMARY KEY,
    facility_id   BIGINT NOT NULL REFERENCES facilities(id) ON DELETE CASCADE,
    name          TEXT NOT NULL,
    designation   TEXT NOT NULL DEFAULT '',
    serial_number TEXT NOT NULL DEFAULT '',
    manufacturer  TEXT NOT NULL DEFAULT '',
    notes         TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(facility_id, name)
);

CREATE TABLE IF NOT EXISTS checklist_templates (
    id         BIGSERIAL PRIMARY KEY,
    module     TEXT NOT NULL,
    title      TEXT NOT NULL,
    position   INTEGER NOT NULL DEFAULT 0,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS checkups (
    id            BIGSERIAL PRIMARY KEY,
    uuid          TEXT NOT NULL UNIQUE,
    island_id     BIGINT NOT NULL REFERENCES islands(id),
    technician    TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'scheduled',
    scheduled_for TIMESTAMPTZ,
    started_at    TIMESTAMPTZ,
    completed_at  TIMESTAMPTZ,
    summary       TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_checkups_status ON checkups(status);
CREATE INDEX IF NOT EXISTS idx_checkups_uuid ON checkups(uuid);

CREATE TABLE IF NOT EXISTS checkup_history (
    id         BIGSERIAL PRIMARY KEY,
    checkup_id BIGINT NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    old_status TEXT NOT NULL,
    new_status TEXT NOT NULL,
    detail     TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS check_items (
    id         BIGSERIAL PRIMARY KEY,
    checkup_id BIGINT NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    module     TEXT NOT NULL,
    title      TEXT NOT NULL,
    position   INTEGER NOT NULL DEFAULT 0,
    status     TEXT NOT NULL DEFAULT 'pending',
    comment    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_check_items_checkup ON check_items(checkup_id);

CREATE TABLE IF NOT EXISTS spare_parts (
    id          BIGSERIAL PRIMARY KEY,
    checkup_id  BIGINT NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    name        TEXT NOT NULL,
    part_number TEXT NOT NULL DEFAULT '',
    quantity    INTEGER NOT NULL DEFAULT 1,
    urgent      BOOLEAN NOT NULL DEFAULT FALSE,
    note        TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS photos (
    id            BIGSERIAL PRIMARY KEY,
    uuid          TEXT NOT NULL UNIQUE,
    checkup_id    BIGINT NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    check_item_id BIGINT REFERENCES check_items(id) ON DELETE SET NULL,
    filename      TEXT NOT NULL,
    original_name TEXT NOT NULL DEFAULT '',
    caption       TEXT NOT NULL DEFAULT '',
    content_type  TEXT NOT NULL DEFAULT 'image/jpeg',
    size_bytes    BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_photos_checkup ON photos(checkup_id);

CREATE TABLE IF NOT EXISTS export_records (
    id           BIGSERIAL PRIMARY KEY,
    uuid         TEXT NOT NULL UNIQUE,
    checkup_id   BIGINT NOT NULL REFERENCES checkups(id) ON DELETE CASCADE,
    format       TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending',
    path         TEXT NOT NULL DEFAULT '',
    size_bytes   BIGINT NOT NULL DEFAULT 0,
    error_detail TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_export_records_checkup ON export_records(checkup_id);

CREATE TABLE IF NOT EXISTS backup_records (
    id         BIGSERIAL PRIMARY KEY,
    filename   TEXT NOT NULL,
    path       TEXT NOT NULL,
    size_bytes BIGINT NOT NULL DEFAULT 0,
    mode       TEXT NOT NULL DEFAULT 'manual',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS outbox (
    id         BIGSERIAL PRIMARY KEY,
    topic      TEXT NOT NULL,
    payload    BYTEA NOT NULL,
    msg_type   TEXT NOT NULL DEFAULT '',
    retries    INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;
`
