// broadcast/broadcast.go
package broadcast

import (
	"github.com/wfunc/spacerace/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToGame(gameID string, msgID uint16, data []byte) error
	BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error
}

// GameBroadcaster 把消息推给订阅了某局比赛的所有连接。
// 每条连接上的写入持有发送锁，同一订阅者看到的快照顺序
// 就是写入顺序。
type GameBroadcaster struct {
	sessionManager *session.Manager
}

func NewGameBroadcaster(sessionManager *session.Manager) *GameBroadcaster {
	return &GameBroadcaster{sessionManager: sessionManager}
}

func (b *GameBroadcaster) BroadcastToGame(gameID string, msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByGameID(gameID) {
		if err := s.Send(msgID, data); err != nil {
			// 发送失败的连接交给读循环去收尾
			continue
		}
	}
	return nil
}

func (b *GameBroadcaster) BroadcastToPlayers(playerIDs []string, msgID uint16, data []byte) error {
	for _, playerID := range playerIDs {
		for _, s := range b.sessionManager.GetByPlayerID(playerID) {
			if err := s.Send(msgID, data); err != nil {
				continue
			}
		}
	}
	return nil
}
