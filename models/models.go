// models/models.go
package models

import (
	"time"
)

// GameRecord 终局归档记录
type GameRecord struct {
	GameID    string       `json:"game_id"`
	Variant   string       `json:"variant"`
	Players   []PlayerInfo `json:"players"`
	WinnerID  string       `json:"winner_id"`
	TurnCount int          `json:"turn_count"`
	CreatedAt time.Time    `json:"created_at"`
}

// PlayerInfo 玩家信息（用于终局记录）
type PlayerInfo struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Outcome    string `json:"outcome"` // win/lose
	Position   int    `json:"position"`
	BoostsUsed int    `json:"boosts_used"`
	HazardsHit int    `json:"hazards_hit"`
}

// GameState 落库的比赛快照，last-writer-wins
type GameState struct {
	GameID    string                 `json:"game_id"`
	Variant   string                 `json:"variant"`
	State     string                 `json:"state"`
	Snapshot  map[string]interface{} `json:"snapshot"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// PlayerStats 按名字聚合的玩家统计信息
type PlayerStats struct {
	TotalGames int `json:"total_games"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
}
