package core

import "sync"

// session is the transient per-admin state carried between handler invocations.
type session struct {
	showUsed           bool
	codesPage          int
	editingBroadcast   string
	instructionMessage int64
}

type sessions struct {
	mu   sync.Mutex
	byId map[int64]*session
}

func newSessions() *sessions {
	return &sessions{byId: make(map[int64]*session)}
}

// update runs fn against the session of id under the lock and returns a copy of the result.
func (s *sessions) update(id int64, fn func(*session)) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.byId[id]
	if !ok {
		sess = &session{}
		s.byId[id] = sess
	}
	if fn != nil {
		fn(sess)
	}
	return *sess
}

func (s *sessions) get(id int64) session {
	return s.update(id, nil)
}

// reset clears the session of id.
func (s *sessions) reset(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byId, id)
}
