// game/game.go
package game

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// 错误定义
var (
	ErrInvalidName    = errors.New("invalid player name")
	ErrGameNotFound   = errors.New("game not found")
	ErrGameFull       = errors.New("game is full")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrGamePaused     = errors.New("game is paused")
	ErrGameFinished   = errors.New("game is finished")
	ErrUnknownVariant = errors.New("unknown variant")
	ErrInvalidRoll    = errors.New("roll out of range")
	ErrUnknownMover   = errors.New("unknown mover")
)

const (
	MinPlayers = 2
	MaxPlayers = 4

	DiceMin = 1
	DiceMax = 6

	MaxNameLength = 20
)

// Game 是一局比赛的权威记录，也是客户端之间的线上协议
type Game struct {
	ID                 string     `json:"id"`
	Variant            string     `json:"variant"`
	Players            []*Player  `json:"players"`
	CurrentPlayerIndex int        `json:"currentPlayerIndex"`
	DiceValue          int        `json:"diceValue,omitempty"`
	IsRolling          bool       `json:"isRolling"`
	TurnCount          int        `json:"turnCount"`
	TotalMoves         int        `json:"totalMoves"`
	IsPaused           bool       `json:"isPaused"`
	PausedBy           string     `json:"pausedBy,omitempty"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	GameWon            bool       `json:"gameWon"`
	Winner             string     `json:"winner,omitempty"`
	Message            string     `json:"message,omitempty"`
	StartedAt          time.Time  `json:"startedAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

// Player 一名参与者，加入后在整局比赛中保留席位
type Player struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Position           int    `json:"position"`
	LastCheckpoint     int    `json:"lastCheckpoint"`
	BoostsUsed         int    `json:"boostsUsed"`
	HazardsHit         int    `json:"hazardsHit"`
	CheckpointsVisited int    `json:"checkpointsVisited"`
	Eliminated         bool   `json:"eliminated"`
}

// OutcomeKind 单次掷骰结算的分类
type OutcomeKind string

const (
	OutcomeAdvance    OutcomeKind = "advance"
	OutcomeOvershoot  OutcomeKind = "overshoot-skip"
	OutcomeHazard     OutcomeKind = "hazard"
	OutcomeBoost      OutcomeKind = "boost"
	OutcomeCheckpoint OutcomeKind = "checkpoint"
	OutcomeWin        OutcomeKind = "win"
)

// MoveOutcome 描述一次掷骰的结算结果，只在连接上传输，不落库
type MoveOutcome struct {
	Kind           OutcomeKind `json:"kind"`
	PlayerID       string      `json:"playerId"`
	Roll           int         `json:"roll"`
	FromPosition   int         `json:"fromPosition"`
	ToPosition     int         `json:"toPosition"`
	BoostTarget    int         `json:"boostTarget,omitempty"`
	HazardReturnTo int         `json:"hazardReturnTo,omitempty"`
	Message        string      `json:"message"`
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)

// SanitizeName validates and normalizes a display name. Names are restricted
// to alphanumerics and spaces, at most 20 characters, so they are safe to use
// both on the wire and as the reconnect key.
func SanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxNameLength || !nameRe.MatchString(name) {
		return "", ErrInvalidName
	}
	return name, nil
}

// NewGame 创建一条新的比赛记录，第一个玩家立即入座
func NewGame(id, variantID string, first *Player) (*Game, error) {
	v, ok := Lookup(variantID)
	if !ok {
		return nil, ErrUnknownVariant
	}
	now := time.Now()
	first.Position = v.StartPosition()
	first.LastCheckpoint = v.StartCheckpoint()
	return &Game{
		ID:        id,
		Variant:   variantID,
		Players:   []*Player{first},
		StartedAt: now,
		UpdatedAt: now,
		Message:   first.Name + " created the game",
	}, nil
}

// PlayerByID 按身份查找玩家
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName 按清洗后的名字查找玩家，重连走这条路径
func (g *Game) PlayerByName(name string) *Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, or nil on an empty roster.
func (g *Game) CurrentPlayer() *Player {
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return g.Players[g.CurrentPlayerIndex]
}

// Clone 深拷贝比赛记录，结算器只在副本上工作
func (g *Game) Clone() *Game {
	cp := *g
	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		cp.Players[i] = &pc
	}
	if g.PausedAt != nil {
		t := *g.PausedAt
		cp.PausedAt = &t
	}
	if g.CompletedAt != nil {
		t := *g.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
