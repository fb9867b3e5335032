// game/variant.go
package game

import "sort"

// WinFunc 胜负判定函数，必须是纯函数且幂等
type WinFunc func(v *Variant, players []*Player, turnCount int) *Player

// Variant 一套规则：棋盘大小、行进方向、星门/外星人分布与胜利条件
type Variant struct {
	ID           string
	BoardSize    int
	MovementSign int         // +1 朝终点前进, -1 倒退档
	Boosts       map[int]int // 星门入口 -> 出口
	Hazards      map[int]bool
	Checkpoints  []int // 已按行进方向排序

	// 胜利条件参数，按需取用
	RequiredCheckpoints int
	TurnLimit           int
	EliminationLimit    int

	CheckWin WinFunc
}

var registry = make(map[string]*Variant)

// Register 把一个变体加入注册表，重复ID直接覆盖
func Register(v *Variant) {
	registry[v.ID] = v
}

// Lookup 按ID查找变体
func Lookup(id string) (*Variant, bool) {
	v, ok := registry[id]
	return v, ok
}

// IDs returns all registered variant ids, sorted for stable listings.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartPosition returns the unentered starting square for this variant.
func (v *Variant) StartPosition() int {
	if v.MovementSign < 0 {
		return v.BoardSize
	}
	return 0
}

// StartCheckpoint 初始安全点就是起点
func (v *Variant) StartCheckpoint() int {
	return v.StartPosition()
}

// Target returns the square a player must land on exactly to finish.
func (v *Variant) Target() int {
	if v.MovementSign < 0 {
		return 0
	}
	return v.BoardSize
}

// Ahead reports whether position a is strictly further along the travel
// direction than position b.
func (v *Variant) Ahead(a, b int) bool {
	if v.MovementSign < 0 {
		return a < b
	}
	return a > b
}

// CheckpointFor 返回不超过 position 的最近检查点（按行进方向），
// 没有可用检查点时退回起点
func (v *Variant) CheckpointFor(position int) int {
	best := v.StartCheckpoint()
	for _, c := range v.Checkpoints {
		if v.Ahead(c, position) {
			continue // 还没走到的检查点
		}
		if v.Ahead(c, best) {
			best = c
		}
	}
	return best
}

// AtTarget reports whether the position satisfies the threshold predicate.
func (v *Variant) AtTarget(position int) bool {
	if v.MovementSign < 0 {
		return position <= 0
	}
	return position >= v.BoardSize
}

// --- 胜利条件 ---

// winThreshold 第一个到达终点的玩家获胜
func winThreshold(v *Variant, players []*Player, turnCount int) *Player {
	for _, p := range players {
		if v.AtTarget(p.Position) {
			return p
		}
	}
	return nil
}

// winThresholdCheckpoints 到达终点且访问过足够多检查点才算赢
func winThresholdCheckpoints(v *Variant, players []*Player, turnCount int) *Player {
	for _, p := range players {
		if v.AtTarget(p.Position) && p.CheckpointsVisited >= v.RequiredCheckpoints {
			return p
		}
	}
	return nil
}

// Score 回合限定变体的计分：检查点10分，星门25分
func (v *Variant) Score(p *Player) int {
	return p.CheckpointsVisited*10 + p.BoostsUsed*25
}

// winTurnLimited no winner before the turn limit; afterwards the highest
// score takes it, boosts used breaking ties. A top score of zero means
// nobody won.
func winTurnLimited(v *Variant, players []*Player, turnCount int) *Player {
	if turnCount < v.TurnLimit {
		return nil
	}
	var best *Player
	for _, p := range players {
		if best == nil {
			best = p
			continue
		}
		s, bs := v.Score(p), v.Score(best)
		if s > bs || (s == bs && p.BoostsUsed > best.BoostsUsed) {
			best = p
		}
	}
	if best == nil || v.Score(best) == 0 {
		return nil
	}
	return best
}

// winSurvival 最后一个未出局的玩家获胜；在场时率先到达终点同样获胜
func winSurvival(v *Variant, players []*Player, turnCount int) *Player {
	var alive *Player
	aliveCount := 0
	for _, p := range players {
		if !p.Eliminated {
			alive = p
			aliveCount++
		}
	}
	if len(players) >= MinPlayers && aliveCount == 1 {
		return alive
	}
	for _, p := range players {
		if !p.Eliminated && v.AtTarget(p.Position) {
			return p
		}
	}
	return nil
}

func init() {
	Register(&Variant{
		ID:           "galaxy",
		BoardSize:    100,
		MovementSign: 1,
		Boosts:       map[int]int{4: 18, 12: 34, 22: 45, 41: 67, 57: 74, 70: 93},
		Hazards:      map[int]bool{14: true, 31: true, 38: true, 48: true, 62: true, 74: true, 89: true, 95: true},
		Checkpoints:  []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90},
		CheckWin:     winThreshold,
	})
	Register(&Variant{
		ID:                  "nebula",
		BoardSize:           80,
		MovementSign:        1,
		Boosts:              map[int]int{5: 21, 17: 36, 29: 53, 44: 71},
		Hazards:             map[int]bool{13: true, 26: true, 40: true, 58: true, 66: true, 77: true},
		Checkpoints:         []int{0, 10, 20, 30, 40, 50, 60, 70},
		RequiredCheckpoints: 4,
		CheckWin:            winThresholdCheckpoints,
	})
	Register(&Variant{
		ID:           "meteor",
		BoardSize:    60,
		MovementSign: 1,
		Boosts:       map[int]int{3: 15, 11: 28, 24: 39, 33: 51},
		Hazards:      map[int]bool{9: true, 19: true, 30: true, 43: true, 55: true},
		Checkpoints:  []int{0, 10, 20, 30, 40, 50},
		TurnLimit:    40,
		CheckWin:     winTurnLimited,
	})
	Register(&Variant{
		ID:               "blackhole",
		BoardSize:        50,
		MovementSign:     -1,
		Boosts:           map[int]int{46: 31, 38: 22, 27: 12, 19: 6},
		Hazards:          map[int]bool{42: true, 33: true, 25: true, 16: true, 8: true},
		Checkpoints:      []int{50, 40, 30, 20, 10},
		EliminationLimit: 3,
		CheckWin:         winSurvival,
	})
}
