// room/manager.go
package room

import (
	"sync"

	"github.com/google/uuid"
	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/timer"
)

func newPlayerID() string {
	return uuid.New().String()
}

// Manager 管理所有房间
type Manager struct {
	rooms       map[string]*Room
	broadcaster Broadcaster
	recorder    Recorder
	metrics     Metrics
	timers      *timer.TimerManager
	pacing      Pacing
	mutex       sync.RWMutex
}

// NewManager 创建一个新的房间管理器
func NewManager(broadcaster Broadcaster, recorder Recorder, metrics Metrics, timers *timer.TimerManager, pacing Pacing) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		broadcaster: broadcaster,
		recorder:    recorder,
		metrics:     metrics,
		timers:      timers,
		pacing:      pacing,
	}
}

// CreateRoom 新建一局比赛，返回房间和创建者席位
func (m *Manager) CreateRoom(variantID, creatorName string) (*Room, *game.Player, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	id := uuid.New().String()
	room, creator, err := NewRoom(id, variantID, creatorName, m.broadcaster, m.recorder, m.metrics, m.timers, m.pacing)
	if err != nil {
		return nil, nil, err
	}
	m.rooms[id] = room
	return room, creator, nil
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		room.Close()
		delete(m.rooms, id)
	}
}

// Count 当前房间数，供监控上报
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
