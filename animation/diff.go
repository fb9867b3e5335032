// animation/diff.go
package animation

import (
	"github.com/wfunc/spacerace/game"
)

// PhaseKind 回放阶段类型
type PhaseKind string

const (
	PhaseStep        PhaseKind = "step"        // 逐格前进
	PhaseEffectPause PhaseKind = "pause"       // 特效前的停顿
	PhaseBoostJump   PhaseKind = "boost-jump"  // 星门跳跃
	PhaseHazardStep  PhaseKind = "hazard-step" // 被外星人抓回，逐格后退
	PhaseSnap        PhaseKind = "snap"        // 无法重建时直接归位
)

// Event 一个回放阶段，From/To 都是棋盘格号
type Event struct {
	PlayerID string    `json:"playerId"`
	Kind     PhaseKind `json:"kind"`
	From     int       `json:"from"`
	To       int       `json:"to"`
}

// Sequence 单个玩家在一次快照差分里要连续播完的全部阶段
type Sequence struct {
	PlayerID string
	Events   []Event
}

// Diff compares two consecutive authoritative snapshots and reconstructs the
// visual phases for every player whose position changed. The wire only
// carries final positions, so the intermediate squares are rebuilt from the
// variant's spaceport and alien tables by searching for the roll that
// explains the delta. Deltas no roll can explain (reset, missed snapshots
// after a reconnect) degrade to a single snap.
//
// Diff 是纯函数，不持有状态；订阅机制换掉也不影响它。
func Diff(v *game.Variant, prev, curr *game.Game) []Sequence {
	if prev == nil || curr == nil {
		return nil
	}

	var out []Sequence
	for _, cp := range curr.Players {
		pp := prev.PlayerByID(cp.ID)
		if pp == nil || pp.Position == cp.Position {
			continue
		}
		if seq, ok := reconstruct(v, pp, cp); ok {
			out = append(out, seq)
			continue
		}
		out = append(out, Sequence{
			PlayerID: cp.ID,
			Events:   []Event{{PlayerID: cp.ID, Kind: PhaseSnap, From: pp.Position, To: cp.Position}},
		})
	}
	return out
}

// reconstruct 穷举骰子点数 1..6，找出能解释这次位移的结算路径
func reconstruct(v *game.Variant, prev, curr *game.Player) (Sequence, bool) {
	for roll := game.DiceMin; roll <= game.DiceMax; roll++ {
		landing := prev.Position + v.MovementSign*roll
		if v.MovementSign > 0 && landing > v.BoardSize {
			continue
		}
		if v.MovementSign < 0 && landing < 0 {
			continue
		}

		final := landing
		dest, boosted := v.Boosts[landing]
		if boosted {
			final = dest
		}
		hazard := v.Hazards[final]
		if hazard {
			// 外星人把玩家送回结算时的安全点。星门跳跃会先推进检查点，
			// 所以回退目标要按结算器的顺序重算
			ret := prev.LastCheckpoint
			if boosted {
				if cp := v.CheckpointFor(dest); v.Ahead(cp, ret) {
					ret = cp
				}
			}
			final = ret
		}
		if final != curr.Position {
			continue
		}

		seq := Sequence{PlayerID: curr.ID}
		appendSteps(&seq, curr.ID, PhaseStep, prev.Position, landing, v.MovementSign)
		if boosted {
			seq.Events = append(seq.Events,
				Event{PlayerID: curr.ID, Kind: PhaseEffectPause, From: landing, To: landing},
				Event{PlayerID: curr.ID, Kind: PhaseBoostJump, From: landing, To: dest})
		}
		if hazard {
			at := landing
			if boosted {
				at = dest
			}
			seq.Events = append(seq.Events,
				Event{PlayerID: curr.ID, Kind: PhaseEffectPause, From: at, To: at})
			appendSteps(&seq, curr.ID, PhaseHazardStep, at, final, sign(final-at))
		}
		return seq, true
	}
	return Sequence{}, false
}

// appendSteps 从 from 到 to 逐格生成阶段，每跨一格一个事件
func appendSteps(seq *Sequence, playerID string, kind PhaseKind, from, to, step int) {
	if step == 0 || from == to {
		return
	}
	for pos := from + step; ; pos += step {
		seq.Events = append(seq.Events, Event{PlayerID: playerID, Kind: kind, From: pos - step, To: pos})
		if pos == to {
			return
		}
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
