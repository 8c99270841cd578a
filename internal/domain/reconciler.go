package domain

import "sync"

// Reconciliation is the outcome of observing one snapshot.
type Reconciliation struct {
	Room Room
	// Apply is true when the snapshot's transport state must be acted on.
	Apply bool
	// Stale is true when the snapshot's seq is older than what was applied.
	Stale bool
}

// Reconciler remembers the highest seq a client has applied. Membership and
// media are always taken from the latest observation, transport effects only
// from a strictly newer seq, so duplicates and reordering are harmless.
// A client that has applied nothing yet starts from -1.
type Reconciler struct {
	mu      sync.Mutex
	lastSeq int64
}

func NewReconciler(appliedSeq int64) *Reconciler {
	return &Reconciler{lastSeq: appliedSeq}
}

func (r *Reconciler) Observe(room Room) Reconciliation {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Reconciliation{Room: room.Sanitized()}
	switch {
	case room.Playback.Seq > r.lastSeq:
		r.lastSeq = room.Playback.Seq
		res.Apply = true
	case room.Playback.Seq < r.lastSeq:
		res.Stale = true
	}

	return res
}

func (r *Reconciler) LastSeq() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSeq
}
