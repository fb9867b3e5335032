// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/spacerace/network"
)

// Session 一条连接。PlayerID/GameID 在加入比赛后绑定，
// 断线重连会产生新的 Session 绑定到同一个 PlayerID。
type Session struct {
	ID         string
	Conn       network.Connection
	PlayerID   string
	PlayerName string
	GameID     string
	Data       map[string]interface{} // 自定义数据
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
		Data:       make(map[string]interface{}),
	}
}

func (s *Session) Set(key string, value interface{}) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Data[key] = value
}

func (s *Session) Get(key string) interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.Data[key]
}

func (s *Session) Send(msgID uint16, data []byte) error {
	s.Touch()
	return s.Conn.Send(msgID, data)
}

// Touch 刷新活跃时间，读循环和发送路径并发调用
func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

// GetID 返回绑定的玩家身份，未入座时退回连接ID。
// 这样回合状态机看到的始终是稳定的玩家身份而不是连接身份。
func (s *Session) GetID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.PlayerID != "" {
		return s.PlayerID
	}
	return s.ID
}

// BindSeat 把连接绑定到某局比赛的一个席位
func (s *Session) BindSeat(gameID, playerID, playerName string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.GameID = gameID
	s.PlayerID = playerID
	s.PlayerName = playerName
}

// ClearSeat 离开比赛时解除绑定
func (s *Session) ClearSeat() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.GameID = ""
	s.PlayerID = ""
	s.PlayerName = ""
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByPlayerID 找出绑定到同一玩家身份的所有连接
func (m *Manager) GetByPlayerID(playerID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.PlayerID == playerID {
			result = append(result, session)
		}
	}
	return result
}

// GetByGameID 找出订阅了某局比赛的所有连接
func (m *Manager) GetByGameID(gameID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.GameID == gameID {
			result = append(result, session)
		}
	}
	return result
}
