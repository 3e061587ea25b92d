package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create catalog items",
		SQL: `
			CREATE TABLE catalog_items (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL,
				price       REAL NOT NULL,
				unit        TEXT NOT NULL,
				stock       INTEGER NOT NULL DEFAULT 0,
				origin      TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				prep_note   TEXT NOT NULL DEFAULT '',
				nutrition   TEXT NOT NULL DEFAULT '',
				tags        TEXT NOT NULL DEFAULT '[]',
				position    INTEGER NOT NULL DEFAULT 0,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_catalog_position ON catalog_items (position);
		`,
	},
	{
		Version: 2,
		Name:    "create chat sessions and turns",
		SQL: `
			CREATE TABLE chat_sessions (
				id          TEXT PRIMARY KEY,
				user_id     TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_chat_sessions_user ON chat_sessions (user_id);

			CREATE TABLE chat_turns (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				timestamp   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_chat_turns_session ON chat_turns (session_id, id);
		`,
	},
}
