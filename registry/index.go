package registry

import (
	"iter"
	"slices"
	"strings"
)

// DefaultReservedNamespaces are never indexed. They hold standard library and
// predeclared types, see ContractOf.
var DefaultReservedNamespaces = []string{"builtin", "std"}

// Candidate is a unit that satisfies a contract at the given ancestor depth.
// Depth 0 means the contract is implemented directly.
type Candidate struct {
	Unit  UnitRef
	Depth int
}

// CandidateMap maps contracts to their candidates in discovery order.
type CandidateMap struct {
	entries map[Contract][]Candidate
}

// NewCandidateMap creates an empty candidate map
func NewCandidateMap() CandidateMap {
	return CandidateMap{entries: make(map[Contract][]Candidate)}
}

// add registers ref as a candidate of contract, keeping the shallowest depth.
func (m CandidateMap) add(contract Contract, ref UnitRef, depth int) {
	list := m.entries[contract]
	for i := range list {
		if list[i].Unit.Name() == ref.Name() {
			if depth < list[i].Depth {
				list[i].Depth = depth
			}
			return
		}
	}
	m.entries[contract] = append(list, Candidate{Unit: ref, Depth: depth})
}

// Candidates returns a copy of the candidates for contract
func (m CandidateMap) Candidates(contract Contract) []Candidate {
	return slices.Clone(m.entries[contract])
}

// Contracts returns the indexed contracts in lexical order
func (m CandidateMap) Contracts() []Contract {
	contracts := make([]Contract, 0, len(m.entries))
	for c := range m.entries {
		contracts = append(contracts, c)
	}
	slices.Sort(contracts)
	return contracts
}

// Len returns the number of indexed contracts
func (m CandidateMap) Len() int {
	return len(m.entries)
}

// IndexerOption configures an Indexer
type IndexerOption func(*Indexer)

// WithReservedNamespaces replaces the reserved namespaces
func WithReservedNamespaces(namespaces ...string) IndexerOption {
	return func(ix *Indexer) {
		ix.reserved = slices.Clone(namespaces)
	}
}

// Indexer builds candidate maps from enumerated unit names.
type Indexer struct {
	catalog  *Catalog
	logger   Logger
	reserved []string
}

// NewIndexer creates an indexer resolving names against catalog
func NewIndexer(catalog *Catalog, logger Logger, opts ...IndexerOption) *Indexer {
	if catalog == nil {
		catalog = Default()
	}
	if logger == nil {
		logger = nopLogger{}
	}
	ix := &Indexer{
		catalog:  catalog,
		logger:   logger,
		reserved: slices.Clone(DefaultReservedNamespaces),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Index resolves every unit name and records each unit as a candidate of
// every contract it reaches. Names without the unit suffix are ignored and
// unresolvable names are skipped with a warning.
func (ix *Indexer) Index(names iter.Seq[string]) CandidateMap {
	cm := NewCandidateMap()
	if names == nil {
		ix.logger.Warn("no assignable units found")
		return cm
	}

	loaded := 0
	for name := range names {
		unitName, ok := strings.CutSuffix(name, UnitSuffix)
		if !ok {
			continue
		}
		ref, found := ix.catalog.Lookup(unitName)
		if !found {
			ix.logger.Warn("unit not resolvable, skipping", "unit", unitName)
			continue
		}
		loaded++
		for contract, depth := range ix.Relations(ref) {
			cm.add(contract, ref, depth)
		}
	}

	if cm.Len() == 0 {
		ix.logger.Warn("no assignable units found", "loaded", loaded)
		return cm
	}
	ix.logger.Info("indexed assignable contracts", "contracts", cm.Len(), "units", loaded)
	for _, contract := range cm.Contracts() {
		units := make([]string, 0, len(cm.entries[contract]))
		for _, c := range cm.entries[contract] {
			units = append(units, c.Unit.Name())
		}
		ix.logger.Debug("assignable units", "contract", contract, "units", units)
	}
	return cm
}

// Relations returns every non-reserved contract ref reaches, mapped to the
// shallowest depth at which it was found.
func (ix *Indexer) Relations(ref UnitRef) map[Contract]int {
	found := make(map[Contract]int)
	ix.walkUnit(ref, 0, found, map[string]bool{ref.Name(): true})
	return found
}

func (ix *Indexer) walkUnit(ref UnitRef, depth int, found map[Contract]int, units map[string]bool) {
	for _, contract := range ref.Implements() {
		if ix.record(contract, depth, found) {
			ix.walkContract(contract, depth+1, found)
		}
	}

	parent := ref.Extends()
	if parent == "" || units[parent] {
		return
	}
	if !ix.record(Contract(parent), depth, found) {
		return
	}
	parentRef, ok := ix.catalog.Lookup(parent)
	if !ok {
		ix.logger.Debug("ancestor unit not registered", "unit", ref.Name(), "ancestor", parent)
		return
	}
	units[parent] = true
	ix.walkUnit(parentRef, depth+1, found, units)
	delete(units, parent)
}

func (ix *Indexer) walkContract(contract Contract, depth int, found map[Contract]int) {
	for _, ext := range ix.catalog.Extends(contract) {
		if ix.record(ext, depth, found) {
			ix.walkContract(ext, depth+1, found)
		}
	}
}

// record stores contract at depth unless it is reserved or already known at
// the same or a shallower depth. It reports whether the walk should descend.
func (ix *Indexer) record(contract Contract, depth int, found map[Contract]int) bool {
	if ix.reservedContract(contract) {
		return false
	}
	if have, ok := found[contract]; ok && have <= depth {
		return false
	}
	found[contract] = depth
	return true
}

func (ix *Indexer) reservedContract(contract Contract) bool {
	name := string(contract)
	for _, ns := range ix.reserved {
		if name == ns || strings.HasPrefix(name, ns+".") {
			return true
		}
	}
	return false
}
