// game/resolver.go
package game

import (
	"fmt"
	"time"
)

// Resolve 结算一次掷骰：在比赛记录的副本上落子并返回结算结果。
// 除时间戳外对输入是纯函数，骰子点数必须在进入前生成好。
//
// 结算顺序是固定的：入场/前进 -> 越界判定 -> 胜利判定 -> 星门 ->
// 胜利判定 -> 外星人 -> 胜利判定 -> 检查点。星门先于外星人结算，
// 因为星门出口本身可能落在外星人格上。
func Resolve(g *Game, moverID string, roll int) (*Game, *MoveOutcome, error) {
	if roll < DiceMin || roll > DiceMax {
		return nil, nil, ErrInvalidRoll
	}
	if g.GameWon {
		return nil, nil, ErrGameFinished
	}
	v, ok := Lookup(g.Variant)
	if !ok {
		return nil, nil, ErrUnknownVariant
	}

	next := g.Clone()
	mover := next.PlayerByID(moverID)
	if mover == nil {
		return nil, nil, ErrUnknownMover
	}

	next.DiceValue = roll
	next.IsRolling = false
	next.TurnCount++
	next.TotalMoves++
	next.UpdatedAt = time.Now()

	outcome := &MoveOutcome{
		PlayerID:     moverID,
		Roll:         roll,
		FromPosition: mover.Position,
		ToPosition:   mover.Position,
	}

	// 出局的玩家仍占一个回合，但不再移动
	if mover.Eliminated {
		outcome.Kind = OutcomeOvershoot
		outcome.Message = fmt.Sprintf("%s is out of the race, turn passes", mover.Name)
		next.Message = outcome.Message
		return next, outcome, nil
	}

	// 起点上必须靠掷骰入场
	candidate := mover.Position + v.MovementSign*roll
	if mover.Position == v.StartPosition() {
		candidate = v.StartPosition() + v.MovementSign*roll
	}

	// 越界：必须正好落在终点上，多出来的点数作废，回合照常轮转
	if (v.MovementSign > 0 && candidate > v.BoardSize) || (v.MovementSign < 0 && candidate < 0) {
		outcome.Kind = OutcomeOvershoot
		outcome.Message = fmt.Sprintf("%s rolled a %d but overshot the finish, turn passes", mover.Name, roll)
		next.Message = outcome.Message
		return next, outcome, nil
	}

	mover.Position = candidate
	outcome.Kind = OutcomeAdvance
	outcome.ToPosition = candidate
	outcome.Message = fmt.Sprintf("%s rolled a %d and advanced to %d", mover.Name, roll, candidate)

	if w := v.CheckWin(v, next.Players, next.TurnCount); w != nil {
		return finishGame(next, outcome, w), outcome, nil
	}

	if dest, boosted := v.Boosts[candidate]; boosted {
		mover.Position = dest
		mover.BoostsUsed++
		advanceCheckpoint(v, mover)
		outcome.Kind = OutcomeBoost
		outcome.ToPosition = dest
		outcome.BoostTarget = dest
		outcome.Message = fmt.Sprintf("%s hit a spaceport and jumped from %d to %d", mover.Name, candidate, dest)

		if w := v.CheckWin(v, next.Players, next.TurnCount); w != nil {
			return finishGame(next, outcome, w), outcome, nil
		}
	}

	if v.Hazards[mover.Position] {
		mover.HazardsHit++
		ret := mover.LastCheckpoint
		mover.Position = ret
		outcome.Kind = OutcomeHazard
		outcome.ToPosition = ret
		outcome.HazardReturnTo = ret
		outcome.Message = fmt.Sprintf("%s was caught by an alien and fell back to %d", mover.Name, ret)

		if v.EliminationLimit > 0 && mover.HazardsHit >= v.EliminationLimit {
			mover.Eliminated = true
			outcome.Message = fmt.Sprintf("%s was caught by an alien and is out of the race", mover.Name)
		}

		// 淘汰可能直接产生幸存者胜利
		if w := v.CheckWin(v, next.Players, next.TurnCount); w != nil {
			return finishGame(next, outcome, w), outcome, nil
		}
	} else if outcome.Kind == OutcomeAdvance {
		if advanceCheckpoint(v, mover) {
			outcome.Kind = OutcomeCheckpoint
			outcome.Message = fmt.Sprintf("%s rolled a %d and reached checkpoint %d", mover.Name, roll, mover.LastCheckpoint)
		}
	}

	next.Message = outcome.Message
	return next, outcome, nil
}

// advanceCheckpoint 把 lastCheckpoint 推到当前位置能覆盖的最近检查点，
// 只会沿行进方向单调推进。返回是否发生了推进。
func advanceCheckpoint(v *Variant, p *Player) bool {
	cp := v.CheckpointFor(p.Position)
	if !v.Ahead(cp, p.LastCheckpoint) {
		return false
	}
	// 统计这次一并越过的检查点数量
	for _, c := range v.Checkpoints {
		if v.Ahead(c, p.LastCheckpoint) && !v.Ahead(c, cp) {
			p.CheckpointsVisited++
		}
	}
	p.LastCheckpoint = cp
	return true
}

// finishGame 终局：冻结棋盘并盖上胜者标记
func finishGame(g *Game, outcome *MoveOutcome, winner *Player) *Game {
	now := time.Now()
	g.GameWon = true
	g.Winner = winner.ID
	g.CompletedAt = &now
	outcome.Kind = OutcomeWin
	outcome.Message = fmt.Sprintf("%s wins the race!", winner.Name)
	g.Message = outcome.Message
	return g
}
