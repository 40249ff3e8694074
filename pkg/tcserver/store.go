package tcserver

import "github.com/agopengps/tc-bridge/pkg/ddop"

// Store is the Partner -> ClientState mapping (spec.md §4.3). Access is
// single-threaded, from the event loop only (spec.md §5); it carries no
// lock of its own.
type Store struct {
	clients map[Partner]*ClientState
	chunks  map[Partner][][]byte
}

func NewStore() *Store {
	return &Store{
		clients: make(map[Partner]*ClientState),
		chunks:  make(map[Partner][][]byte),
	}
}

// StorePool appends chunk to the partner's pending upload. If continuing is
// false the pending upload is reset first (a fresh upload starting over).
// Always succeeds; it never parses.
func (s *Store) StorePool(partner Partner, chunk []byte, continuing bool) {
	if !continuing {
		s.chunks[partner] = nil
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.chunks[partner] = append(s.chunks[partner], buf)
}

// ActivatePool concatenates the partner's stored chunks, attempts to
// deserialise a pool, and on success installs a ClientState. Mirrors
// activate_pool's (ok, activation_error, pool_error, parent_object_id,
// object_id) return shape (spec.md §4.1); parent_object_id/object_id are 0
// when no single object pinpoints the failure.
func (s *Store) ActivatePool(partner Partner) (ok bool, actErr ActivationError, poolErr error, parentObjectID, objectID uint16) {
	chunks, found := s.chunks[partner]
	if !found || len(chunks) == 0 {
		return false, ActivationErrorNoChunks, nil, 0, 0
	}

	var data []byte
	for _, c := range chunks {
		data = append(data, c...)
	}

	pool, err := ddop.Parse(data)
	if err != nil {
		return false, ActivationErrorParseFailed, err, 0, 0
	}

	cs := newClientState(pool, pool.CountSections())
	s.clients[partner] = cs
	if pool.Device() != nil {
		objectID = pool.Device().ObjectID
	}
	return true, ActivationErrorNone, nil, 0, objectID
}

// DeactivatePool drops both the ClientState and the pending chunk buffer.
func (s *Store) DeactivatePool(partner Partner) {
	delete(s.clients, partner)
	delete(s.chunks, partner)
}

// DeletePool is identical to DeactivatePool; ISO 11783-10 distinguishes the
// two requests, this core does not need to.
func (s *Store) DeletePool(partner Partner) {
	s.DeactivatePool(partner)
}

// OnClientTimeout drops the ClientState only, leaving chunks in place so a
// fresh upload can follow without re-sending everything (spec.md §4.1).
func (s *Store) OnClientTimeout(partner Partner) {
	delete(s.clients, partner)
}

// Get returns the installed ClientState for partner, if any.
func (s *Store) Get(partner Partner) (*ClientState, bool) {
	cs, ok := s.clients[partner]
	return cs, ok
}

// Partners lists every partner with an installed ClientState. Order is
// unspecified.
func (s *Store) Partners() []Partner {
	partners := make([]Partner, 0, len(s.clients))
	for p := range s.clients {
		partners = append(partners, p)
	}
	return partners
}
