// store.go

package trivia

import (
	"sync"

	"github.com/jacl-coder/TriviaStorm-Server/internal/models"
)

// SessionStore 对局存储，按单调递增的ID索引。
// 所有访问都通过控制器串行化，存储本身只负责保管与分配ID。
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]*models.Session
	nextID   int64
}

// NewSessionStore 创建对局存储
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]*models.Session),
		nextID:   1,
	}
}

// Create 分配下一个ID并登记新对局
func (s *SessionStore) Create(build func(id int64) *models.Session) *models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	session := build(id)
	s.sessions[id] = session
	return session
}

// Get 按ID获取对局
func (s *SessionStore) Get(id int64) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	return session, ok
}

// List 按状态筛选对局，status为空时返回全部
func (s *SessionStore) List(status models.SessionStatus) []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if status != "" && session.Status != status {
			continue
		}
		result = append(result, session)
	}
	return result
}

// Count 当前登记的对局数量
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
