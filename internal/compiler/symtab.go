package compiler

// symbolTable maps a 1..255 identifier to an address in the output code.
// Insertion-ordered; first definition wins. Addresses are stored as
// base+offset at definition time (spec.md §3) and converted back to an
// offset relative to base when resolved — base is fixed for the life of a
// compile, so this is mostly bookkeeping fidelity to the data model rather
// than something that changes behavior.
type symbolTable struct {
	base    uint16
	order   []uint8
	address map[uint8]uint16
	max     int
}

func newSymbolTable(base uint16, max int) *symbolTable {
	return &symbolTable{
		base:    base,
		address: make(map[uint8]uint16),
		max:     max,
	}
}

// Define records id at the given code offset (relative to base). Reports
// duplicate if id is already defined, or overflow if the table is full; in
// either case nothing is recorded.
func (t *symbolTable) Define(id uint8, offset uint16) (duplicate bool, overflow bool) {
	if _, exists := t.address[id]; exists {
		return true, false
	}
	if len(t.order) >= t.max {
		return false, true
	}
	t.address[id] = t.base + offset
	t.order = append(t.order, id)
	return false, false
}

// Resolve returns the offset (relative to base) id was defined at.
func (t *symbolTable) Resolve(id uint8) (offset uint16, ok bool) {
	abs, exists := t.address[id]
	if !exists {
		return 0, false
	}
	return abs - t.base, true
}

// Snapshot returns the resolved offsets for every defined symbol, keyed by
// identifier (a map, so it carries no definition order).
func (t *symbolTable) Snapshot() map[uint8]uint16 {
	out := make(map[uint8]uint16, len(t.order))
	for _, id := range t.order {
		offset, _ := t.Resolve(id)
		out[id] = offset
	}
	return out
}
