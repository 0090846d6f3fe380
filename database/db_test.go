package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCreatesSchema(t *testing.T) {
	db, err := OpenAndMigrate(MemoryDSN())
	require.NoError(t, err)
	defer Close(db)

	for _, table := range []string{
		"users", "invite_codes", "loops", "signals", "decisions", "decision_participants",
		"resources", "trust_actions", "system_metrics", "activity_log", "institution_bundles",
		"field_rituals", "sanctuary_protocols", "coherence_measurements", "side_work_tasks",
		"swarm_signals", "swarm_aggregations", "signal_library_entries",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	db, err := OpenAndMigrate(MemoryDSN())
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
}
