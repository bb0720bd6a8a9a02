package reconcile

// lane tracks the in-flight operations of one field group (reaction, or
// bookmark) on one item. Every op remembers the state right before its own
// optimistic step; when an op resolves out of order its snapshot is handed to
// the next pending op so a stale rollback never overwrites newer state.
//
// owner is the op whose outcome decides the visible state. It starts as the
// newest op; when that op fails, ownership falls back to the op pending right
// before it, unless a newer op already succeeded over it.
type lane[S any] struct {
	last    uint64
	owner   uint64
	pending []pendingOp[S]
}

type pendingOp[S any] struct {
	seq    uint64
	before S
	// superseded is set once a newer op succeeded; the op can no longer
	// take back ownership.
	superseded bool
}

func (l *lane[S]) begin(before S) uint64 {
	l.last++
	l.owner = l.last
	l.pending = append(l.pending, pendingOp[S]{seq: l.last, before: before})
	return l.last
}

// succeed resolves seq with the server-confirmed state and reports whether
// that state should become visible.
func (l *lane[S]) succeed(seq uint64, confirmed S) bool {
	i := l.index(seq)
	if i < 0 {
		return false
	}
	if i+1 < len(l.pending) {
		l.pending[i+1].before = confirmed
	}
	for j := 0; j < i; j++ {
		l.pending[j].superseded = true
	}
	l.remove(i)
	return seq == l.owner
}

// fail resolves seq as failed. It returns the snapshot to restore and whether
// it should be restored.
func (l *lane[S]) fail(seq uint64) (S, bool) {
	var zero S
	i := l.index(seq)
	if i < 0 {
		return zero, false
	}
	op := l.pending[i]
	if i+1 < len(l.pending) {
		l.pending[i+1].before = op.before
	}
	owns := seq == l.owner
	if owns {
		l.owner = 0
		if i > 0 && !l.pending[i-1].superseded {
			l.owner = l.pending[i-1].seq
		}
	}
	l.remove(i)
	return op.before, owns
}

func (l *lane[S]) inFlight() int {
	return len(l.pending)
}

func (l *lane[S]) index(seq uint64) int {
	for i, op := range l.pending {
		if op.seq == seq {
			return i
		}
	}
	return -1
}

func (l *lane[S]) remove(i int) {
	l.pending = append(l.pending[:i], l.pending[i+1:]...)
}
