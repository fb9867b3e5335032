// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/spacerace/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormGame{}, &models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameState 保存比赛快照，同一局后写覆盖先写
func (p *GormPostgreSQL) SaveGameState(gameID, variant, state string, snapshot interface{}) error {
	snapMap, err := toMap(snapshot)
	if err != nil {
		return err
	}

	var row models.GormGame
	result := p.db.Where("game_id = ?", gameID).First(&row)

	if result.Error == gorm.ErrRecordNotFound {
		row = models.GormGame{
			GameID:   gameID,
			Variant:  variant,
			State:    state,
			Snapshot: snapMap,
		}
		return p.db.Create(&row).Error
	} else if result.Error != nil {
		return result.Error
	}

	row.State = state
	row.Snapshot = snapMap
	return p.db.Save(&row).Error
}

// LoadGameState 加载比赛快照
func (p *GormPostgreSQL) LoadGameState(gameID string) (*models.GameState, error) {
	var row models.GormGame
	if err := p.db.Where("game_id = ?", gameID).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &models.GameState{
		GameID:    row.GameID,
		Variant:   row.Variant,
		State:     row.State,
		Snapshot:  row.Snapshot,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// SaveGameRecord 归档终局，玩家按名字建索引方便统计
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord, snapshot interface{}) error {
	snapMap, err := toMap(snapshot)
	if err != nil {
		return err
	}

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

	row := models.GormGameRecord{
		GameID:    record.GameID,
		Variant:   record.Variant,
		WinnerID:  record.WinnerID,
		TurnCount: record.TurnCount,
		Players:   players,
		Snapshot:  snapMap,
	}

	return p.db.Create(&row).Error
}

// GetPlayerStats 按名字统计战绩
func (p *GormPostgreSQL) GetPlayerStats(name string) (*models.PlayerStats, error) {
	var stats models.PlayerStats

	err := p.db.Raw(
		`
        SELECT
            COUNT(*) as total_games,
            SUM(CASE WHEN players -> @name ->> 'outcome' = 'win' THEN 1 ELSE 0 END) as wins,
            SUM(CASE WHEN players -> @name ->> 'outcome' = 'lose' THEN 1 ELSE 0 END) as losses
        FROM gorm_game_records
        WHERE jsonb_exists(players, @name)`,
		map[string]interface{}{"name": name},
	).Scan(&stats).Error

	return &stats, err
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// toMap 任意快照对象转成 jsonb 友好的 map
func toMap(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
