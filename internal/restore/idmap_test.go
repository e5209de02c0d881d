package restore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableRecordLookup(t *testing.T) {
	tbl := NewTable()

	_, ok := tbl.Lookup("5")
	assert.False(t, ok)

	tbl.Record("5", "12")
	got, ok := tbl.Lookup("5")
	assert.True(t, ok)
	assert.Equal(t, "12", got)
	assert.Equal(t, 1, tbl.Len())
}

func TestTableIgnoresEmptyIdentifiers(t *testing.T) {
	tbl := NewTable()
	tbl.Record("", "12")
	tbl.Record("5", "")
	assert.Equal(t, 0, tbl.Len())
}

func TestNewTablesAreIndependent(t *testing.T) {
	tables := NewTables()
	tables.Interfaces.Record("5", "12")

	_, ok := tables.StaticRoutes.Lookup("5")
	assert.False(t, ok)

	got, ok := tables.Interfaces.Lookup("5")
	assert.True(t, ok)
	assert.Equal(t, "12", got)
}

func TestLedgerCounts(t *testing.T) {
	l := NewLedger()
	l.Restored("ports")
	l.Restored("ports")
	l.Failed("ports")
	l.Skipped("mtu")
	l.Warnf("device %s needs attention", "Q2XX")

	o := l.Outcome()
	assert.Equal(t, 2, o.Restored["ports"])
	assert.Equal(t, 1, o.Failed["ports"])
	assert.Equal(t, 1, o.Skipped["mtu"])
	assert.Equal(t, 2, o.TotalRestored())
	assert.Equal(t, 1, o.TotalFailed())
	assert.Equal(t, 1, o.TotalSkipped())
	assert.Equal(t, []string{"mtu", "ports"}, o.Categories())
	assert.Equal(t, []string{"device Q2XX needs attention"}, o.Warnings)
}

func TestOutcomeIsASnapshotOfTheLedger(t *testing.T) {
	l := NewLedger()
	l.Restored("stp")
	o := l.Outcome()
	l.Restored("stp")
	assert.Equal(t, 1, o.Restored["stp"])
}
