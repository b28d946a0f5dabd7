package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termnorm/normalization"
)

func newTestDB(t *testing.T) *MappingDB {
	t.Helper()

	db, err := NewMappingDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMappingDB_EmptyTable(t *testing.T) {
	db := newTestDB(t)

	table, err := db.LoadMappingTable()
	require.NoError(t, err)
	assert.Empty(t, table.Forward)
	assert.Empty(t, table.Terms())
}

func TestMappingDB_SaveAndLoadPlain(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveMapping("NA", normalization.PlainTarget("Sodium")))

	table, err := db.LoadMappingTable()
	require.NoError(t, err)

	entry, ok := table.Forward["NA"]
	require.True(t, ok)
	assert.Equal(t, "Sodium", entry.Target())
	_, isPlain := entry.(normalization.PlainTarget)
	assert.True(t, isPlain)
}

func TestMappingDB_SaveAndLoadRich(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveMapping("K", normalization.RichTarget{
		TargetValue: "Potassium",
		Category:    "electrolyte",
		Unit:        "mmol/l",
	}))

	table, err := db.LoadMappingTable()
	require.NoError(t, err)

	rich, ok := table.Forward["K"].(normalization.RichTarget)
	require.True(t, ok)
	assert.Equal(t, "Potassium", rich.TargetValue)
	assert.Equal(t, "electrolyte", rich.Category)
	assert.Equal(t, "mmol/l", rich.Unit)
}

func TestMappingDB_SaveMappingUpsert(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveMapping("NA", normalization.PlainTarget("Sodium")))
	require.NoError(t, db.SaveMapping("NA", normalization.PlainTarget("Natrium")))

	table, err := db.LoadMappingTable()
	require.NoError(t, err)
	assert.Equal(t, "Natrium", table.Forward["NA"].Target())
	assert.Len(t, table.Forward, 1)
}

func TestMappingDB_CanonicalTermsAndAliases(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveCanonicalTerm("Sodium", normalization.ReverseEntry{
		Aliases:  []string{"Na", "Natrium"},
		Category: "electrolyte",
	}))
	require.NoError(t, db.SaveCanonicalTerm("Potassium", normalization.ReverseEntry{}))

	table, err := db.LoadMappingTable()
	require.NoError(t, err)

	assert.Equal(t, []string{"Potassium", "Sodium"}, table.Terms())

	sodium := table.Reverse["Sodium"]
	assert.Equal(t, "electrolyte", sodium.Category)
	assert.ElementsMatch(t, []string{"Na", "Natrium"}, sodium.Aliases)
}

func TestMappingDB_SaveCanonicalTermReplacesAliases(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.SaveCanonicalTerm("Sodium", normalization.ReverseEntry{Aliases: []string{"Na"}}))
	require.NoError(t, db.SaveCanonicalTerm("Sodium", normalization.ReverseEntry{Aliases: []string{"Natrium"}}))

	table, err := db.LoadMappingTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"Natrium"}, table.Reverse["Sodium"].Aliases)
}

func TestMappingDB_SaveMappingValidation(t *testing.T) {
	db := newTestDB(t)

	assert.Error(t, db.SaveMapping("", normalization.PlainTarget("x")))
	assert.Error(t, db.SaveMapping("key", nil))
}

func TestMappingDB_MigrationsIdempotent(t *testing.T) {
	db := newTestDB(t)

	// Повторный прогон миграций не должен падать на существующих таблицах
	require.NoError(t, db.migrate())
}

func TestMatchLog_WriteAndStats(t *testing.T) {
	db := newTestDB(t)
	ml := NewMatchLog(db)

	ml.LogMatch(normalization.MatchLogEntry{
		Source:     "NA",
		Target:     "Sodium",
		Method:     "cached",
		Confidence: 1.0,
		LatencyMS:  1,
	})
	ml.LogMatch(normalization.MatchLogEntry{
		Source:     "sodum",
		Target:     "Sodium",
		Method:     "fuzzy",
		Confidence: 0.83,
		LatencyMS:  3,
		MatchedKey: "Sodium",
		Direction:  "reverse",
	})
	ml.LogMatch(normalization.MatchLogEntry{
		Source:     "kalium",
		Target:     "Potassium",
		Method:     "fuzzy",
		Confidence: 0.75,
		LatencyMS:  5,
	})

	stats, err := ml.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "fuzzy", stats[0].Method)
	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 0.79, stats[0].AvgConfidence, 0.001)
}

func TestMatchLog_ImplementsMatchLogger(t *testing.T) {
	var _ normalization.MatchLogger = NewMatchLog(newTestDB(t))
}
