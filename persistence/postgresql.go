// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq"

	"github.com/wfunc/spacerace/models"
)

// PostgreSQL 不经过ORM的实现，走原生SQL
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &PostgreSQL{db: db}
	if err := p.createTables(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PostgreSQL) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS games (
			game_id    TEXT PRIMARY KEY,
			variant    TEXT NOT NULL,
			state      TEXT NOT NULL,
			snapshot   JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS game_records (
			id         SERIAL PRIMARY KEY,
			game_id    TEXT NOT NULL,
			variant    TEXT NOT NULL,
			winner_id  TEXT,
			turn_count INT NOT NULL DEFAULT 0,
			players    JSONB NOT NULL,
			snapshot   JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_records_game_id ON game_records (game_id)`,
	}
	for _, q := range queries {
		if _, err := p.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveGameState 快照upsert，同一局后写覆盖先写
func (p *PostgreSQL) SaveGameState(gameID, variant, state string, snapshot interface{}) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
		INSERT INTO games (game_id, variant, state, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (game_id)
		DO UPDATE SET state = $3, snapshot = $4, updated_at = now()`,
		gameID, variant, state, raw)
	return err
}

// LoadGameState 加载比赛快照
func (p *PostgreSQL) LoadGameState(gameID string) (*models.GameState, error) {
	var (
		gs  models.GameState
		raw []byte
	)
	err := p.db.QueryRow(`
		SELECT game_id, variant, state, snapshot, created_at, updated_at
		FROM games WHERE game_id = $1`, gameID).
		Scan(&gs.GameID, &gs.Variant, &gs.State, &raw, &gs.CreatedAt, &gs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &gs.Snapshot); err != nil {
		return nil, err
	}
	return &gs, nil
}

// SaveGameRecord 归档终局
func (p *PostgreSQL) SaveGameRecord(record *models.GameRecord, snapshot interface{}) error {
	players := make(map[string]interface{}, len(record.Players))
	for _, pi := range record.Players {
		players[pi.Name] = map[string]interface{}{
			"player_id":   pi.PlayerID,
			"outcome":     pi.Outcome,
			"position":    pi.Position,
			"boosts_used": pi.BoostsUsed,
			"hazards_hit": pi.HazardsHit,
		}
	}
	playersRaw, err := json.Marshal(players)
	if err != nil {
		return err
	}
	snapRaw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`
		INSERT INTO game_records (game_id, variant, winner_id, turn_count, players, snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.GameID, record.Variant, record.WinnerID, record.TurnCount, playersRaw, snapRaw)
	return err
}

// GetPlayerStats 按名字统计战绩
func (p *PostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var stats models.PlayerStats
	err := p.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN players -> $1 ->> 'outcome' = 'win' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN players -> $1 ->> 'outcome' = 'lose' THEN 1 ELSE 0 END), 0)
		FROM game_records
		WHERE jsonb_exists(players, $1)`, name).
		Scan(&stats.TotalGames, &stats.Wins, &stats.Losses)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
