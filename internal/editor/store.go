package editor

import (
	"sync"
	"time"

	"teretnjaci-web/internal/metrics"

	"github.com/google/uuid"
)

type entry struct {
	owner    string
	session  *Session
	lastUsed time.Time
}

// Store keeps editing sessions between requests. A session is only visible to
// the owner that opened it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry), now: time.Now}
}

// Open registers s for owner and returns its ID.
func (st *Store) Open(owner string, s *Session) string {
	id := uuid.NewString()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[id] = &entry{owner: owner, session: s, lastUsed: st.now()}
	metrics.EditorSessions.Set(float64(len(st.sessions)))
	return id
}

// Get returns the session with the given ID if it belongs to owner.
func (st *Store) Get(id, owner string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok || e.owner != owner {
		return nil, false
	}
	e.lastUsed = st.now()
	return e.session, true
}

// Find returns the ID of an open session owner has on the existing article
// articleID. Sessions whose article failed to load are not reused.
func (st *Store) Find(owner string, articleID int64) (string, bool) {
	if articleID == 0 {
		return "", false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, e := range st.sessions {
		if e.owner != owner {
			continue
		}
		v := e.session.View()
		if v.Mode == ModeEdit && v.ArticleID == articleID && v.State != Failed {
			e.lastUsed = st.now()
			return id, true
		}
	}
	return "", false
}

// Close forgets a session.
func (st *Store) Close(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
	metrics.EditorSessions.Set(float64(len(st.sessions)))
}

// Sweep drops sessions unused for longer than maxIdle and returns how many were dropped.
func (st *Store) Sweep(maxIdle time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := st.now().Add(-maxIdle)
	n := 0
	for id, e := range st.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(st.sessions, id)
			n++
		}
	}
	metrics.EditorSessions.Set(float64(len(st.sessions)))
	return n
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
