package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS session (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS issue_history (
	id            TEXT PRIMARY KEY,
	connection_id TEXT NOT NULL,
	issue_id      TEXT NOT NULL DEFAULT '',
	issue_key     TEXT NOT NULL,
	project_key   TEXT NOT NULL,
	summary       TEXT NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issue_history_connection
	ON issue_history(connection_id, created_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
