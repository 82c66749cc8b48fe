package journal

const createEntries = `CREATE TABLE IF NOT EXISTS entries (
    entry_id TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    message TEXT NOT NULL,
    kind TEXT NOT NULL,
    target TEXT NOT NULL DEFAULT '',
    value TEXT NOT NULL DEFAULT '',
    source TEXT NOT NULL DEFAULT '',
    planned INTEGER NOT NULL DEFAULT 0,
    applied INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    reply TEXT NOT NULL
);`

const createEntriesIndex = `CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries (created_at);`

const schemaSQL = createEntries + "\n" + createEntriesIndex
