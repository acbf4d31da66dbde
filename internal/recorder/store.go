package recorder

import (
	"context"
	"fmt"
	"sync"

	"github.com/verte-zerg/speechtasker/internal/model"
	"github.com/verte-zerg/speechtasker/internal/store"
)

// StoreRecorder writes results to the SQLite store. The session header is
// inserted before the first row.
type StoreRecorder struct {
	st    *store.Store
	info  model.SessionInfo
	owned bool

	mu      sync.Mutex
	started bool
}

// NewStore returns a recorder for the session described by info. When owned
// is true, Close also closes st.
func NewStore(st *store.Store, info model.SessionInfo, owned bool) *StoreRecorder {
	return &StoreRecorder{st: st, info: info, owned: owned}
}

// Record stores row under the recorder's session.
func (r *StoreRecorder) Record(ctx context.Context, row model.ResultRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		if err := r.st.InsertSession(ctx, r.info); err != nil {
			return fmt.Errorf("failed to store session %s: %w", r.info.ID, err)
		}
		r.started = true
	}
	row.SessionID = r.info.ID
	if err := r.st.InsertResult(ctx, row); err != nil {
		return fmt.Errorf("failed to store trial %d: %w", row.Trial, err)
	}
	return nil
}

// Close releases the store when the recorder owns it.
func (r *StoreRecorder) Close() error {
	if !r.owned {
		return nil
	}
	return r.st.Close()
}
