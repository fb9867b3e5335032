// room/room.go
package room

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/logger"
	"github.com/wfunc/spacerace/network"
	"github.com/wfunc/spacerace/state"
	"github.com/wfunc/spacerace/timer"
)

// Pacing 控制掷骰的两段演出延迟和暂停宽限期。
// 延迟为零时结算同步完成，测试走这条路径。
type Pacing struct {
	RollDelay    time.Duration // 摇骰子动画时长
	ResolveDelay time.Duration // 亮出点数到落子之间的停顿
	PauseGrace   time.Duration // 超过宽限期后任何人都可以恢复比赛
}

// DefaultPacing matches the feel of the original client.
var DefaultPacing = Pacing{
	RollDelay:    800 * time.Millisecond,
	ResolveDelay: 600 * time.Millisecond,
	PauseGrace:   5 * time.Minute,
}

// Room 持有一局比赛的权威记录，所有修改都从这里走
type Room struct {
	ID           string
	game         *game.Game
	variant      *game.Variant
	StateMachine state.StateMachine
	CreatedAt    time.Time

	broadcaster Broadcaster
	recorder    Recorder
	metrics     Metrics
	timers      *timer.TimerManager
	pacing      Pacing
	roll        func() int // 注入RNG方便测试

	pendingRoll   int
	pendingTimers []int64
	generation    int // reset/close 使在途的定时器作废

	mutex     sync.RWMutex
	ticker    *time.Ticker
	closeChan chan bool
	closeOnce sync.Once
}

// NewRoom 创建一个房间并让创建者入座
func NewRoom(id, variantID, creatorName string, broadcaster Broadcaster, recorder Recorder, metrics Metrics, timers *timer.TimerManager, pacing Pacing) (*Room, *game.Player, error) {
	name, err := game.SanitizeName(creatorName)
	if err != nil {
		return nil, nil, err
	}
	v, ok := game.Lookup(variantID)
	if !ok {
		return nil, nil, game.ErrUnknownVariant
	}

	creator := &game.Player{ID: newPlayerID(), Name: name}
	g, err := game.NewGame(id, variantID, creator)
	if err != nil {
		return nil, nil, err
	}

	r := &Room{
		ID:          id,
		game:        g,
		variant:     v,
		CreatedAt:   time.Now(),
		broadcaster: broadcaster,
		recorder:    recorder,
		metrics:     metrics,
		timers:      timers,
		pacing:      pacing,
		roll:        func() int { return rand.Intn(game.DiceMax) + 1 },
		closeChan:   make(chan bool),
	}

	r.StateMachine = state.NewBaseStateMachine(state.NewWaitingState(r))

	// 房间心跳驱动状态机
	r.ticker = time.NewTicker(100 * time.Millisecond)
	go r.loop()

	return r, creator, nil
}

// --- 实现 state.GameContext 接口 ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) GetVariant() string {
	return r.game.Variant
}

func (r *Room) PlayerCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.game.Players)
}

func (r *Room) CurrentPlayerID() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if p := r.game.CurrentPlayer(); p != nil {
		return p.ID
	}
	return ""
}

func (r *Room) IsPaused() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.game.IsPaused
}

func (r *Room) ChangeState(newState state.State) error {
	return r.StateMachine.ChangeState(newState)
}

func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToGame(r.ID, msgID, data)
}

// --- 核心操作 ---

// Snapshot 返回权威记录的深拷贝
func (r *Room) Snapshot() *game.Game {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.game.Clone()
}

// Join 加入比赛。同名玩家按断线重连处理，返回原有席位。
func (r *Room) Join(playerName string) (*game.Player, error) {
	name, err := game.SanitizeName(playerName)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	if existing := r.game.PlayerByName(name); existing != nil {
		p := *existing
		r.mutex.Unlock()
		logger.Log.Infof("game %s: %s reconnected", r.ID, name)
		return &p, nil
	}
	if len(r.game.Players) >= game.MaxPlayers {
		r.mutex.Unlock()
		return nil, game.ErrGameFull
	}

	p := &game.Player{
		ID:             newPlayerID(),
		Name:           name,
		Position:       r.variant.StartPosition(),
		LastCheckpoint: r.variant.StartCheckpoint(),
	}
	r.game.Players = append(r.game.Players, p)
	r.game.Message = name + " joined the game"
	r.game.UpdatedAt = time.Now()
	joined := *p
	r.mutex.Unlock()

	r.publishSnapshot()
	return &joined, nil
}

// HandleAction 把玩家动作交给当前回合状态处理
func (r *Room) HandleAction(player state.Player, actionData []byte) error {
	currentState := r.StateMachine.GetCurrentState()
	if currentState == nil {
		return nil
	}
	return currentState.HandleAction(player, actionData)
}

// SubmitRoll 提交掷骰意图，所有被守卫拒绝的情况都是良性无效操作
func (r *Room) SubmitRoll(playerID string) error {
	data, _ := json.Marshal(state.Action{Type: state.ActionRoll})
	return r.HandleAction(playerRef(playerID), data)
}

// BeginRoll 由 awaiting_roll 状态在守卫通过后调用，
// 先公布摇骰中的快照，再按演出节奏亮点数、落子。
func (r *Room) BeginRoll(playerID string) error {
	r.mutex.Lock()
	cur := r.game.CurrentPlayer()
	// IsRolling 挡住同一席位的并发重复提交：重连后旧连接还在时，
	// 两条连接可能绕过状态机各自走到这里，只有第一个能起跑
	if cur == nil || cur.ID != playerID || r.game.GameWon || r.game.IsPaused || r.game.IsRolling {
		r.mutex.Unlock()
		return nil
	}
	r.game.IsRolling = true
	r.game.DiceValue = 0
	r.game.UpdatedAt = time.Now()
	gen := r.generation
	r.mutex.Unlock()

	r.ChangeState(state.NewResolvingState(r))
	r.publishSnapshot()

	if r.pacing.RollDelay <= 0 && r.pacing.ResolveDelay <= 0 {
		r.revealDice(gen, playerID)
		return nil
	}

	r.schedule(r.pacing.RollDelay, func() { r.revealDice(gen, playerID) })
	return nil
}

// revealDice 第一段演出结束：生成点数并公布，落子等第二段
func (r *Room) revealDice(gen int, playerID string) {
	r.mutex.Lock()
	if gen != r.generation {
		r.mutex.Unlock()
		return
	}
	r.pendingRoll = r.roll()
	r.game.DiceValue = r.pendingRoll
	r.game.UpdatedAt = time.Now()
	r.mutex.Unlock()

	r.publishSnapshot()

	if r.pacing.ResolveDelay <= 0 {
		r.resolveRoll(gen, playerID)
		return
	}
	r.schedule(r.pacing.ResolveDelay, func() { r.resolveRoll(gen, playerID) })
}

// resolveRoll 真正的结算：调用结算器、轮转回合并广播
func (r *Room) resolveRoll(gen int, playerID string) {
	r.mutex.Lock()
	if gen != r.generation {
		r.mutex.Unlock()
		return
	}
	// 落子前再确认回合归属，过期的结算直接作废
	if cur := r.game.CurrentPlayer(); cur == nil || cur.ID != playerID || !r.game.IsRolling {
		r.mutex.Unlock()
		return
	}

	start := time.Now()
	next, outcome, err := game.Resolve(r.game, playerID, r.pendingRoll)
	if err != nil {
		// 非法输入不得外泄，回到等待掷骰
		logger.Log.Errorf("game %s: resolve failed: %v", r.ID, err)
		r.game.IsRolling = false
		r.mutex.Unlock()
		r.ChangeState(state.NewAwaitingRollState(r))
		return
	}

	if !next.GameWon {
		next.CurrentPlayerIndex = (next.CurrentPlayerIndex + 1) % len(next.Players)
	}
	r.game = next
	won := next.GameWon
	r.mutex.Unlock()

	if r.metrics != nil {
		r.metrics.IncRollsResolved()
		r.metrics.ObserveResolveLatency(time.Since(start))
	}

	if won {
		r.ChangeState(state.NewFinishedState(r))
		if r.recorder != nil {
			if err := r.recorder.RecordCompleted(r.ID, next.Variant, r.Snapshot()); err != nil {
				logger.Log.Errorf("game %s: record completed failed: %v", r.ID, err)
			}
		}
	} else {
		r.ChangeState(state.NewAwaitingRollState(r))
	}

	if data, err := json.Marshal(outcome); err == nil {
		r.Broadcast(network.MsgTypeOutcome, data)
	}
	r.publishSnapshot()
}

// Pause 任何在场玩家都可以暂停，记录暂停者
func (r *Room) Pause(playerID string) error {
	r.mutex.Lock()
	p := r.game.PlayerByID(playerID)
	if p == nil || r.game.IsPaused || r.game.GameWon {
		r.mutex.Unlock()
		return nil
	}
	now := time.Now()
	r.game.IsPaused = true
	r.game.PausedBy = playerID
	r.game.PausedAt = &now
	r.game.Message = p.Name + " paused the game"
	r.game.UpdatedAt = now
	r.mutex.Unlock()

	r.publishSnapshot()
	return nil
}

// Resume 暂停者可以随时恢复；超过宽限期后任何在场玩家都可以，
// 避免暂停者掉线把比赛永久锁死
func (r *Room) Resume(playerID string) error {
	r.mutex.Lock()
	p := r.game.PlayerByID(playerID)
	if p == nil || !r.game.IsPaused {
		r.mutex.Unlock()
		return nil
	}
	if playerID != r.game.PausedBy {
		if r.game.PausedAt == nil || time.Since(*r.game.PausedAt) < r.pacing.PauseGrace {
			r.mutex.Unlock()
			return nil
		}
	}
	r.game.IsPaused = false
	r.game.PausedBy = ""
	r.game.PausedAt = nil
	r.game.Message = p.Name + " resumed the game"
	r.game.UpdatedAt = time.Now()
	r.mutex.Unlock()

	r.publishSnapshot()
	return nil
}

// Reset 保留名单和变体，其余全部归零。随时可用，重复调用无害。
func (r *Room) Reset() error {
	r.mutex.Lock()
	r.generation++ // 作废所有在途的结算定时器
	r.cancelTimersLocked()
	for _, p := range r.game.Players {
		p.Position = r.variant.StartPosition()
		p.LastCheckpoint = r.variant.StartCheckpoint()
		p.BoostsUsed = 0
		p.HazardsHit = 0
		p.CheckpointsVisited = 0
		p.Eliminated = false
	}
	r.game.CurrentPlayerIndex = 0
	r.game.DiceValue = 0
	r.game.IsRolling = false
	r.game.TurnCount = 0
	r.game.TotalMoves = 0
	r.game.IsPaused = false
	r.game.PausedBy = ""
	r.game.PausedAt = nil
	r.game.GameWon = false
	r.game.Winner = ""
	r.game.CompletedAt = nil
	r.game.Message = "game reset"
	r.game.UpdatedAt = time.Now()
	count := len(r.game.Players)
	r.mutex.Unlock()

	if count >= game.MinPlayers {
		r.ChangeState(state.NewAwaitingRollState(r))
	} else {
		r.ChangeState(state.NewWaitingState(r))
	}
	r.publishSnapshot()
	return nil
}

// --- 内部 ---

func (r *Room) publishSnapshot() {
	snap := r.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		logger.Log.Errorf("game %s: marshal snapshot failed: %v", r.ID, err)
		return
	}
	if err := r.Broadcast(network.MsgTypeSnapshot, data); err != nil {
		logger.Log.Debugf("game %s: broadcast snapshot: %v", r.ID, err)
	}
	if r.recorder != nil {
		st := state.StateWaiting
		if cur := r.StateMachine.GetCurrentState(); cur != nil {
			st = cur.GetID()
		}
		if err := r.recorder.SaveSnapshot(r.ID, snap.Variant, st, snap); err != nil {
			logger.Log.Errorf("game %s: save snapshot failed: %v", r.ID, err)
		}
	}
}

func (r *Room) schedule(delay time.Duration, fn func()) {
	if r.timers == nil {
		go fn()
		return
	}
	id := r.timers.AddTimer(delay, fn)
	r.mutex.Lock()
	r.pendingTimers = append(r.pendingTimers, id)
	r.mutex.Unlock()
}

func (r *Room) cancelTimersLocked() {
	if r.timers != nil {
		for _, id := range r.pendingTimers {
			r.timers.RemoveTimer(id)
		}
	}
	r.pendingTimers = r.pendingTimers[:0]
}

// loop 是房间的主循环，定时驱动状态更新
func (r *Room) loop() {
	for {
		select {
		case <-r.ticker.C:
			r.Update()
		case <-r.closeChan:
			r.ticker.Stop()
			return
		}
	}
}

// Update 由主循环调用，驱动状态机更新
func (r *Room) Update() {
	if r.StateMachine != nil {
		currentState := r.StateMachine.GetCurrentState()
		if currentState != nil {
			currentState.OnUpdate()
		}
	}
}

// Close 关闭房间并作废在途定时器
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		r.mutex.Lock()
		r.generation++
		r.cancelTimersLocked()
		r.mutex.Unlock()
		close(r.closeChan)
	})
}

// playerRef 让一个裸玩家ID满足 state.Player 接口
type playerRef string

func (p playerRef) GetID() string { return string(p) }
