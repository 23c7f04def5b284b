package posegraph

// VertexID identifies a vertex uniquely across every graph in a run.
type VertexID int64

// IDStore issues fleet-wide unique vertex ids. One store is shared by all
// graphs of a mission so merged fragments never collide. The simulation
// is single threaded, so no locking is needed.
type IDStore struct {
	next VertexID
}

// NewIDStore returns a store whose first id is 1; id 0 means "no vertex".
func NewIDStore() *IDStore {
	return &IDStore{next: 1}
}

// Next returns the next unused id.
func (s *IDStore) Next() VertexID {
	id := s.next
	s.next++
	return id
}
