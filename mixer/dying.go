package mixer

// dyingNode is one link in the dying list: a retired decoder awaiting
// destruction off the audio thread, plus its display name (freed at the
// same time) purely for symmetry with the C original — Go's GC reclaims
// the string itself, but keeping it alongside the decoder documents
// that both are released together.
type dyingNode struct {
	decoder Decoder
	name    string
	next    *dyingNode
}

// dyingList is the process-wide graveyard described in spec.md §3/§4.4:
// an intrusive singly-linked list, appended to by the mixer callback
// under the name lock, detached and closed by the periodic reaper on
// the application thread.
//
// dyingList has no lock of its own — Context.nameMu protects push and
// detach, matching the name-lock scope spec.md §5 specifies for "the
// dying list head".
type dyingList struct {
	head *dyingNode
}

// push prepends a retired decoder. Caller must hold the name lock.
func (l *dyingList) push(d Decoder, name string) {
	l.head = &dyingNode{decoder: d, name: name, next: l.head}
}

// detach atomically removes the entire list, returning its head so the
// caller can walk and close it outside the lock. Caller must hold the
// name lock for the swap itself, but must release it before closing
// any decoder (closing can block on I/O).
func (l *dyingList) detach() *dyingNode {
	head := l.head
	l.head = nil
	return head
}

// closeAll walks a detached chain and closes every decoder. Must be
// called from the application thread, never from the mixing callback.
func closeAll(head *dyingNode) int {
	n := 0
	for node := head; node != nil; node = node.next {
		node.decoder.Close()
		n++
	}
	return n
}
