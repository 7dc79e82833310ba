package demparser

import (
	"github.com/icza/tf2rep/dem"
	"github.com/icza/tf2rep/dem/democore"
)

// numBaselineSlots is the number of double-buffered instance-baseline
// slots the engine swaps between on updated_base_line (§4.7, §4.8).
const numBaselineSlots = 2

// State is the parser's shared mutable context (C8, §4.8). It is
// mutated by the DataTables packet (once, installing the schema), by
// StringTables packets (registering tables and their entries), by the
// framer's per-packet Tick update, and by the six "stateful" message
// types; every other component treats it as read-only for the duration
// of one message decode.
type State struct {
	ProtocolVersion uint32
	NetworkProtocol uint32
	IntervalPerTick float32
	Tick            democore.Tick

	ServerClasses []*dem.ServerClass          // ordered; class id = index
	SendTables    map[string]*dem.SendTableDef // by name
	Schemas       []*dem.ServerClassSchema     // by class id, flattened

	stringTables []*dem.StringTableMeta
	tableEntries map[int][]*dem.StringTableEntry // current entries, by table id

	eventDefs map[int]*dem.GameEventDefinition

	entityClasses map[democore.EntityID]democore.ClassID

	instanceBaselines [numBaselineSlots]map[democore.EntityID][]*dem.SendProp

	staticBaselineRaw    map[democore.ClassID][]byte
	staticBaselineParsed map[democore.ClassID][]*dem.SendProp
}

// NewState returns a fresh, empty parser state.
func NewState() *State {
	s := &State{
		SendTables:        make(map[string]*dem.SendTableDef),
		tableEntries:      make(map[int][]*dem.StringTableEntry),
		eventDefs:         make(map[int]*dem.GameEventDefinition),
		entityClasses:     make(map[democore.EntityID]democore.ClassID),
		staticBaselineRaw:    make(map[democore.ClassID][]byte),
		staticBaselineParsed: make(map[democore.ClassID][]*dem.SendProp),
	}
	for i := range s.instanceBaselines {
		s.instanceBaselines[i] = make(map[democore.EntityID][]*dem.SendProp)
	}
	return s
}

// SchemaForClass returns the flattened schema for class, or nil if the
// class id is out of range (an UnknownServerClass condition, §7).
func (s *State) SchemaForClass(class democore.ClassID) *dem.ServerClassSchema {
	if int(class) < 0 || int(class) >= len(s.Schemas) {
		return nil
	}
	return s.Schemas[class]
}

// StringTableMetaByName looks up a table's meta by name, or nil.
func (s *State) StringTableMetaByName(name string) *dem.StringTableMeta {
	for _, m := range s.stringTables {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// StringTableMetaByID looks up a table's meta by id, or nil.
func (s *State) StringTableMetaByID(id int) *dem.StringTableMeta {
	for _, m := range s.stringTables {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// registerStringTable installs a new table meta, assigning it the next
// sequential id, and seeds its entry cache.
func (s *State) registerStringTable(m *dem.StringTableMeta) {
	m.ID = len(s.stringTables)
	s.stringTables = append(s.stringTables, m)
	s.tableEntries[m.ID] = nil
}

// entriesForTable returns the live entry slice for table id, growing it
// as needed so index writes are always in range.
func (s *State) entriesForTable(id int, index int) []*dem.StringTableEntry {
	entries := s.tableEntries[id]
	if index >= len(entries) {
		grown := make([]*dem.StringTableEntry, index+1)
		copy(grown, entries)
		entries = grown
		s.tableEntries[id] = entries
	}
	return entries
}

// setEntry installs an entry at index in table id.
func (s *State) setEntry(id, index int, e *dem.StringTableEntry) {
	entries := s.entriesForTable(id, index)
	entries[index] = e
	s.tableEntries[id] = entries
}

// installSchema is called once per demo, on the DataTables packet
// (§4.8, channel (a)): it installs the server-class list and the
// flattened schema for every class.
func (s *State) installSchema(tables []*dem.SendTableDef, classes []*dem.ServerClass) error {
	s.SendTables = make(map[string]*dem.SendTableDef, len(tables))
	for _, t := range tables {
		s.SendTables[t.Name] = t
	}
	s.ServerClasses = classes
	s.Schemas = make([]*dem.ServerClassSchema, len(classes))

	for i, c := range classes {
		table, ok := s.SendTables[c.DataTable]
		if !ok {
			return newErr(ErrUnknownSendTable, c.DataTable)
		}
		flat, err := flattenTable(s.SendTables, table)
		if err != nil {
			return err
		}
		s.Schemas[i] = &dem.ServerClassSchema{Class: c, Table: table, Flat: flat}
	}
	return nil
}

// staticBaseline returns the lazily-parsed static baseline for class,
// memoizing the result (§4.7 step 3, §4.8 "cache of already-parsed
// baselines").
func (s *State) staticBaseline(class democore.ClassID) ([]*dem.SendProp, error) {
	if parsed, ok := s.staticBaselineParsed[class]; ok {
		return parsed, nil
	}
	raw, ok := s.staticBaselineRaw[class]
	if !ok {
		return nil, nil
	}
	schema := s.SchemaForClass(class)
	if schema == nil {
		return nil, newErr(ErrUnknownServerClass, "")
	}
	props, err := decodePropUpdate(raw, schema.Flat)
	if err != nil {
		return nil, err
	}
	s.staticBaselineParsed[class] = props
	return props, nil
}
