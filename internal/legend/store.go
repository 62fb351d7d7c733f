package legend

import (
	"fmt"
	"slices"
	"strconv"
)

// Store is an immutable, indexed set of legend records. The zero value is an
// empty store.
type Store struct {
	provider  string
	records   []Record
	byCode    map[string]int
	byOldID   map[int]int
	bySymbol  map[string]int
	byAlias   map[string]int
	byVariant map[string]int
}

// Load builds a base store from the rows of a base legend dataset. A row with
// neither a legend code nor a legacy id, or a repeated legend code or legacy
// id, fails the whole load with ErrMalformedDataset.
func Load(rows []Row) (*Store, error) {
	b := newBuilder("", len(rows))
	for i, row := range rows {
		if Key(row.LegendCode) == "" && row.OldID == 0 {
			return nil, fmt.Errorf("%w: row %d has neither legend_code nor old_id", ErrMalformedDataset, i+1)
		}
		if row.OldID < 0 {
			return nil, fmt.Errorf("%w: row %d has negative old_id %d", ErrMalformedDataset, i+1, row.OldID)
		}
		if k := Key(row.LegendCode); k != "" {
			if _, dup := b.byCode[k]; dup {
				return nil, fmt.Errorf("%w: row %d repeats legend_code %q", ErrMalformedDataset, i+1, row.LegendCode)
			}
		}
		if row.OldID != 0 {
			if _, dup := b.byOldID[row.OldID]; dup {
				return nil, fmt.Errorf("%w: row %d repeats old_id %d", ErrMalformedDataset, i+1, row.OldID)
			}
		}
		b.add(row.record())
	}
	return b.build(), nil
}

// Provider is the provider the store was patched for; empty for a base store.
func (s *Store) Provider() string { return s.provider }

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// Records returns a copy of every record in load order.
func (s *Store) Records() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// LookupByCode finds the record with the given legend code. A day record is
// also found by the codes of its other variants unless a record, such as a
// patch-derived night variant, owns that code itself.
func (s *Store) LookupByCode(code string) (Record, bool) {
	k := Key(code)
	if r, ok := s.at(s.byCode, k); ok {
		return r, true
	}
	return s.at(s.byVariant, k)
}

// LookupByOldID finds the record with the given legacy id.
func (s *Store) LookupByOldID(id int) (Record, bool) {
	i, ok := s.byOldID[id]
	if !ok {
		return Record{}, false
	}
	return s.records[i].clone(), true
}

// LookupBySymbol finds a record by symbol id, trying the records' own symbol
// ids before their aliases.
func (s *Store) LookupBySymbol(symbolID string) (Record, bool) {
	k := Key(symbolID)
	if r, ok := s.at(s.bySymbol, k); ok {
		return r, true
	}
	return s.at(s.byAlias, k)
}

// Lookup finds a record by an identifier of the given kind. Old ids are given
// in decimal.
func (s *Store) Lookup(kind Kind, identifier string) (Record, bool) {
	switch kind {
	case KindLegendCode:
		return s.LookupByCode(identifier)
	case KindOldID:
		id, err := strconv.Atoi(identifier)
		if err != nil {
			return Record{}, false
		}
		return s.LookupByOldID(id)
	case KindSymbolID:
		return s.LookupBySymbol(identifier)
	}
	return Record{}, false
}

func (s *Store) at(index map[string]int, key string) (Record, bool) {
	if key == "" {
		return Record{}, false
	}
	i, ok := index[key]
	if !ok {
		return Record{}, false
	}
	return s.records[i].clone(), true
}

// builder is the mutable form of a Store used while loading and patching.
type builder struct {
	provider string
	records  []Record
	byCode   map[string]int
	byOldID  map[int]int
	bySymbol map[string]int
	byAlias  map[string]int
}

func newBuilder(provider string, size int) *builder {
	return &builder{
		provider: provider,
		records:  make([]Record, 0, size),
		byCode:   make(map[string]int, size),
		byOldID:  make(map[int]int, size),
		bySymbol: make(map[string]int, size),
		byAlias:  make(map[string]int),
	}
}

// builderFrom deep copies s so the copy can be patched without touching s.
func builderFrom(s *Store, provider string) *builder {
	b := newBuilder(provider, len(s.records)+8)
	for _, r := range s.records {
		b.add(r.clone())
	}
	return b
}

// add appends r and indexes it. Index slots already taken keep their first
// record; callers check for collisions beforehand where that matters.
func (b *builder) add(r Record) int {
	i := len(b.records)
	b.records = append(b.records, r)
	b.index(i)
	return i
}

func (b *builder) index(i int) {
	r := b.records[i]
	if k := Key(r.LegendCode); k != "" {
		if _, taken := b.byCode[k]; !taken {
			b.byCode[k] = i
		}
	}
	if r.OldID != 0 {
		if _, taken := b.byOldID[r.OldID]; !taken {
			b.byOldID[r.OldID] = i
		}
	}
	if k := Key(r.SymbolID); k != "" {
		if _, taken := b.bySymbol[k]; !taken {
			b.bySymbol[k] = i
		}
	}
	for _, a := range r.Aliases {
		if k := Key(a); k != "" {
			if _, taken := b.byAlias[k]; !taken {
				b.byAlias[k] = i
			}
		}
	}
}

// symbolInUse reports whether key is already a symbol id or alias.
func (b *builder) symbolInUse(key string) bool {
	if _, ok := b.bySymbol[key]; ok {
		return true
	}
	_, ok := b.byAlias[key]
	return ok
}

func (b *builder) build() *Store {
	byVariant := make(map[string]int)
	for i, r := range b.records {
		for _, code := range r.VariantCodes() {
			k := Key(code)
			if _, owned := b.byCode[k]; owned {
				continue
			}
			if _, taken := byVariant[k]; !taken {
				byVariant[k] = i
			}
		}
	}
	return &Store{
		provider:  b.provider,
		records:   slices.Clip(b.records),
		byCode:    b.byCode,
		byOldID:   b.byOldID,
		bySymbol:  b.bySymbol,
		byAlias:   b.byAlias,
		byVariant: byVariant,
	}
}
