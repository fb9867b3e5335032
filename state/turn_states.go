// state/turn_states.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/logger"
)

// 状态ID
const (
	StateWaiting      = "waiting"
	StateAwaitingRoll = "awaiting_roll"
	StateResolving    = "resolving"
	StateFinished     = "finished"
)

// Action represents a player action that can be unmarshalled from a packet.
type Action struct {
	Type string `json:"type"`
}

const ActionRoll = "roll"

// WaitingState 等待凑齐最少两名玩家
type WaitingState struct {
	TurnStateBase
}

func NewWaitingState(ctx GameContext) *WaitingState {
	return &WaitingState{TurnStateBase: TurnStateBase{ID: StateWaiting, Ctx: ctx}}
}

func (s *WaitingState) OnUpdate() {
	// 人够了马上开局，不设倒计时；后续加入的玩家直接进入轮转
	if s.Ctx.PlayerCount() >= game.MinPlayers {
		s.Ctx.ChangeState(NewAwaitingRollState(s.Ctx))
	}
}

func (s *WaitingState) HandleAction(player Player, actionData []byte) error {
	// 人没到齐之前掷骰是良性无效操作
	return nil
}

// AwaitingRollState 轮到某人掷骰，等待其提交
type AwaitingRollState struct {
	TurnStateBase
}

func NewAwaitingRollState(ctx GameContext) *AwaitingRollState {
	return &AwaitingRollState{TurnStateBase: TurnStateBase{ID: StateAwaitingRoll, Ctx: ctx}}
}

func (s *AwaitingRollState) OnEnter() {
	logger.Log.Debugf("game %s awaiting roll from %s", s.Ctx.GetID(), s.Ctx.CurrentPlayerID())
}

// HandleAction 只接受当前玩家的掷骰请求，其余一律按良性冲突丢弃
func (s *AwaitingRollState) HandleAction(player Player, actionData []byte) error {
	var action Action
	if err := json.Unmarshal(actionData, &action); err != nil {
		return fmt.Errorf("failed to unmarshal action data: %w", err)
	}
	if action.Type != ActionRoll {
		return nil
	}

	if s.Ctx.IsPaused() {
		logger.Log.Debugf("game %s is paused, roll from %s ignored", s.Ctx.GetID(), player.GetID())
		return nil
	}
	if player.GetID() != s.Ctx.CurrentPlayerID() {
		// 过期的客户端视图，等下一个快照自然纠正
		logger.Log.Debugf("game %s: stale roll from %s ignored, current is %s",
			s.Ctx.GetID(), player.GetID(), s.Ctx.CurrentPlayerID())
		return nil
	}

	return s.Ctx.BeginRoll(player.GetID())
}

// ResolvingState 掷骰已提交，结算进行中
type ResolvingState struct {
	TurnStateBase
}

func NewResolvingState(ctx GameContext) *ResolvingState {
	return &ResolvingState{TurnStateBase: TurnStateBase{ID: StateResolving, Ctx: ctx}}
}

func (s *ResolvingState) HandleAction(player Player, actionData []byte) error {
	// 结算期间的重复提交直接丢弃
	logger.Log.Debugf("game %s resolving, action from %s dropped", s.Ctx.GetID(), player.GetID())
	return nil
}

// FinishedState 终局，只有 reset 能离开这个状态
type FinishedState struct {
	TurnStateBase
}

func NewFinishedState(ctx GameContext) *FinishedState {
	return &FinishedState{TurnStateBase: TurnStateBase{ID: StateFinished, Ctx: ctx}}
}

func (s *FinishedState) OnEnter() {
	logger.Log.Infof("game %s finished", s.Ctx.GetID())
}
