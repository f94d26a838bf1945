package store

// CreateTableSQL is the table definition the postgres store runs against.
// It is created by PostgresStore.EnsureSchema (run by cmd/agenda when
// ensure-indexes-on-startup is set, and by cmd/seed) or by an operator
// migration; apart from EnsureSchema the store only issues DML.
const CreateTableSQL = `
CREATE TABLE IF NOT EXISTS scheduled_jobs (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name             TEXT NOT NULL,
	type             TEXT NOT NULL,
	unique_key       TEXT NOT NULL DEFAULT '',
	unique_selector  JSONB,
	next_run_at      TIMESTAMPTZ,
	repeat_interval  TEXT NOT NULL DEFAULT '',
	repeat_timezone  TEXT NOT NULL DEFAULT '',
	priority         INTEGER NOT NULL DEFAULT 0,
	data             JSONB,
	locked_at        TIMESTAMPTZ,
	lock_until       TIMESTAMPTZ,
	locked_by        TEXT NOT NULL DEFAULT '',
	last_run_at      TIMESTAMPTZ,
	last_finished_at TIMESTAMPTZ,
	fail_count       INTEGER NOT NULL DEFAULT 0,
	failed_at        TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
)`
