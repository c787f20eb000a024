package mesh

// EdgeAdjacency stores, for every vertex, the destinations of the directed
// edges that originate from it. Three parallel arrays: Counts[v] directed
// edges leave v, and their destinations occupy
// Data[Offsets[v] : Offsets[v]+Counts[v]]. Every face corner contributes
// exactly one entry, so len(Data) equals the index count.
type EdgeAdjacency struct {
	Counts  []uint32
	Offsets []uint32
	Data    []uint32
}

// BuildEdgeAdjacency constructs the directed edge adjacency of a triangle
// list. Each face (a, b, c) contributes the half-edges a->b, b->c and
// c->a. All indices must be smaller than vertexCount.
func BuildEdgeAdjacency(indices []uint32, vertexCount int) *EdgeAdjacency {
	adjacency := &EdgeAdjacency{
		Counts:  make([]uint32, vertexCount),
		Offsets: make([]uint32, vertexCount),
		Data:    make([]uint32, len(indices)),
	}

	for _, index := range indices {
		adjacency.Counts[index]++
	}

	offset := uint32(0)
	for i := 0; i < vertexCount; i++ {
		adjacency.Offsets[i] = offset
		offset += adjacency.Counts[i]
	}

	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]

		adjacency.Data[adjacency.Offsets[a]] = b
		adjacency.Offsets[a]++
		adjacency.Data[adjacency.Offsets[b]] = c
		adjacency.Offsets[b]++
		adjacency.Data[adjacency.Offsets[c]] = a
		adjacency.Offsets[c]++
	}

	// the fill pass advanced the offsets by one count each; walk them back
	for i := 0; i < vertexCount; i++ {
		adjacency.Offsets[i] -= adjacency.Counts[i]
	}

	return adjacency
}

// Edges returns the destination list of the directed edges leaving v.
func (adjacency *EdgeAdjacency) Edges(v uint32) []uint32 {
	offset := adjacency.Offsets[v]
	return adjacency.Data[offset : offset+adjacency.Counts[v]]
}

// HasEdge returns true if the directed edge a->b is present and false
// otherwise.
func (adjacency *EdgeAdjacency) HasEdge(a, b uint32) bool {
	for _, v := range adjacency.Edges(a) {
		if v == b {
			return true
		}
	}
	return false
}
