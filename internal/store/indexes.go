package store

// Index names the indexes the store depends on for correctness and
// performance (spec §4.6). The claim, save, and cancel paths never issue
// CREATE INDEX; the statements DDL() renders are run either by an operator
// migration or by PostgresStore.EnsureSchema.
type Index struct {
	Name string
	DDL  string
}

// RequiredIndexes documents the three indexes the claim, upsert, and
// singleton-uniqueness invariants rely on.
var RequiredIndexes = []Index{
	{
		Name: "idx_due_claim",
		DDL: `CREATE INDEX IF NOT EXISTS idx_due_claim ON scheduled_jobs ` +
			`(next_run_at ASC, lock_until ASC, priority DESC)`,
	},
	{
		Name: "idx_name_unique_key",
		DDL:  `CREATE INDEX IF NOT EXISTS idx_name_unique_key ON scheduled_jobs (name, unique_key)`,
	},
	{
		Name: "ux_single_name",
		DDL: `CREATE UNIQUE INDEX IF NOT EXISTS ux_single_name ON scheduled_jobs (name) ` +
			`WHERE type = 'SINGLE'`,
	},
}

// DDL renders every required index's CREATE INDEX statement, in
// dependency-free order, for an operator-run migration.
func DDL() []string {
	stmts := make([]string, len(RequiredIndexes))
	for i, idx := range RequiredIndexes {
		stmts[i] = idx.DDL
	}
	return stmts
}
