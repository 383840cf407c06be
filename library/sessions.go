package library

import (
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sessions hands out exactly one State per user for the life of the process.
type Sessions struct {
	mu     sync.Mutex
	states map[primitive.ObjectID]*session
}

type session struct {
	once  sync.Once
	state *State
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[primitive.ObjectID]*session)}
}

// Get returns the user's State. init runs once, on first access, before any other
// caller can observe the State.
func (s *Sessions) Get(userID primitive.ObjectID, init func(*State)) *State {
	s.mu.Lock()
	sess, ok := s.states[userID]
	if !ok {
		sess = &session{state: NewState()}
		s.states[userID] = sess
	}
	s.mu.Unlock()
	sess.once.Do(func() {
		if init != nil {
			init(sess.state)
		}
	})
	return sess.state
}

// Drop forgets a user's State, e.g. on logout.
func (s *Sessions) Drop(userID primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
