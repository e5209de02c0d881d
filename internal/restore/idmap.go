package restore

// Table maps old server-assigned identifiers to the identifiers assigned
// during this run. Append-only: entries are recorded the instant a create
// succeeds (or an equivalent existing resource is matched) and never change.
type Table struct {
	mapping map[string]string
}

// NewTable returns an empty translation table.
func NewTable() *Table {
	return &Table{mapping: make(map[string]string)}
}

// Record stores old → new. Empty old identifiers are ignored: a resource
// captured without an identifier has nothing to translate.
func (t *Table) Record(oldID, newID string) {
	if oldID == "" || newID == "" {
		return
	}
	t.mapping[oldID] = newID
}

// Lookup translates an old identifier. ok is false when the owning create
// step never succeeded; callers must skip or drop the reference, never
// guess.
func (t *Table) Lookup(oldID string) (string, bool) {
	newID, ok := t.mapping[oldID]
	return newID, ok
}

// Len returns the number of recorded entries.
func (t *Table) Len() int { return len(t.mapping) }

// Tables holds one translation table per resource category. Created fresh
// per restore run and discarded at run end.
type Tables struct {
	PortSchedules    *Table
	QoSRules         *Table
	LinkAggregations *Table
	AccessPolicies   *Table
	RadiusServers    *Table
	Interfaces       *Table
	DHCPServers      *Table
	StaticRoutes     *Table
	RendezvousPoints *Table
}

// NewTables returns a fresh set of empty tables.
func NewTables() *Tables {
	return &Tables{
		PortSchedules:    NewTable(),
		QoSRules:         NewTable(),
		LinkAggregations: NewTable(),
		AccessPolicies:   NewTable(),
		RadiusServers:    NewTable(),
		Interfaces:       NewTable(),
		DHCPServers:      NewTable(),
		StaticRoutes:     NewTable(),
		RendezvousPoints: NewTable(),
	}
}
