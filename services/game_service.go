// services/game_service.go
package services

import (
	"fmt"

	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/models"
	"github.com/wfunc/spacerace/persistence"
)

// GameService 把权威快照和终局记录落库，实现 room.Recorder
type GameService struct {
	db persistence.Database
}

func NewGameService(db persistence.Database) *GameService {
	return &GameService{db: db}
}

// SaveSnapshot 每次广播快照时同步落库，last-writer-wins
func (s *GameService) SaveSnapshot(gameID, variant, state string, snapshot interface{}) error {
	return s.db.SaveGameState(gameID, variant, state, snapshot)
}

// RecordCompleted 终局归档：每名玩家的胜负和计数器进战绩表
func (s *GameService) RecordCompleted(gameID, variant string, snapshot interface{}) error {
	g, ok := snapshot.(*game.Game)
	if !ok {
		return fmt.Errorf("unexpected snapshot type %T", snapshot)
	}
	if !g.GameWon {
		return fmt.Errorf("game %s is not finished", gameID)
	}

	record := &models.GameRecord{
		GameID:    gameID,
		Variant:   variant,
		WinnerID:  g.Winner,
		TurnCount: g.TurnCount,
	}
	for _, p := range g.Players {
		outcome := "lose"
		if p.ID == g.Winner {
			outcome = "win"
		}
		record.Players = append(record.Players, models.PlayerInfo{
			PlayerID:   p.ID,
			Name:       p.Name,
			Outcome:    outcome,
			Position:   p.Position,
			BoostsUsed: p.BoostsUsed,
			HazardsHit: p.HazardsHit,
		})
	}

	return s.db.SaveGameRecord(record, g)
}

// GetPlayerStats 按名字查战绩
func (s *GameService) GetPlayerStats(name string) (*models.PlayerStats, error) {
	clean, err := game.SanitizeName(name)
	if err != nil {
		return nil, err
	}
	return s.db.GetPlayerStats(clean)
}

// LoadGameState 读取落库的比赛快照，房间回收后供运维侧查询
func (s *GameService) LoadGameState(gameID string) (*models.GameState, error) {
	return s.db.LoadGameState(gameID)
}
