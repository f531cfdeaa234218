// Package migrate creates top-level records from extracted block instances
// and maintains the block-id to record-id mapping that makes re-runs safe.
package migrate

// Mapping is the append-only dictionary from old block instance id to new
// record id. Ids are never remapped: adding an already-mapped id is a no-op,
// which is what makes a partially failed run resumable.
type Mapping map[string]string

// Add records a mapping unless the id is already mapped.
func (m Mapping) Add(blockID, recordID string) {
	if _, ok := m[blockID]; ok {
		return
	}
	m[blockID] = recordID
}

// Has reports whether the block id is already mapped.
func (m Mapping) Has(blockID string) bool {
	_, ok := m[blockID]
	return ok
}

// Get returns the mapped record id, or "".
func (m Mapping) Get(blockID string) string {
	return m[blockID]
}
