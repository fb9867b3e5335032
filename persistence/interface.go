// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/spacerace/models"
)

// Database 数据库接口。快照写入是 last-writer-wins：
// 同一 game_id 的后写覆盖先写，不做版本合并。
type Database interface {
	SaveGameState(gameID, variant, state string, snapshot interface{}) error
	LoadGameState(gameID string) (*models.GameState, error)
	SaveGameRecord(record *models.GameRecord, snapshot interface{}) error
	GetPlayerStats(name string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
