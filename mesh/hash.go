/*package mesh contains the topology side of the simplifier: the hash
primitive shared by its lookup tables, directed edge adjacency, the
position remap with its wedge rings, and vertex classification.
*/
package mesh

// Hasher is the capability bundle consumed by Lookup: a hash over T and an
// equality predicate over T. Hashers are small value types passed by value
// so the probe loop dispatches statically.
type Hasher[T any] interface {
	Hash(T) uint32
	Equal(T, T) bool
}

// Buckets returns the smallest power of two that is >= count. Tables
// passed to Lookup must be sized with it so that the probe mask is valid.
func Buckets(count int) int {
	buckets := 1
	for buckets < count {
		buckets *= 2
	}
	return buckets
}

// Lookup probes table for key and returns the index of either the slot
// that the hasher considers equal to key or the first slot holding empty
// along the probe path. The probe sequence is quadratic. The table length
// must be a power of two, and the caller must size the table to at least
// the number of unique keys it inserts; a table with no matching and no
// empty slot is a sizing bug and panics.
func Lookup[T comparable, H Hasher[T]](table []T, hasher H, key, empty T) int {
	hashmod := uint32(len(table) - 1)
	bucket := hasher.Hash(key) & hashmod

	for probe := uint32(0); probe <= hashmod; probe++ {
		item := table[bucket]

		if item == empty {
			return int(bucket)
		}
		if hasher.Equal(item, key) {
			return int(bucket)
		}

		// hash collision, quadratic probing
		bucket = (bucket + probe + 1) & hashmod
	}

	panic("mesh: hash table is full")
}
