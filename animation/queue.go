// animation/queue.go
package animation

import (
	"sync"
	"time"
)

// Queue 按玩家串行播放回放序列：同一玩家的序列排队逐个播完，
// 不同玩家可以并行。入队永不阻塞，所以网络读循环不会被动画卡住。
// 队列只做展示，从不回写权威记录；重连后从空队列重建即可。
type Queue struct {
	stepDur  time.Duration
	pauseDur time.Duration
	sink     func(Event)

	mu      sync.Mutex
	cond    *sync.Cond
	players map[string]*playerLine
	done    chan struct{}
	closed  bool
}

// playerLine 单个玩家的待播序列
type playerLine struct {
	pending  []Sequence
	draining bool
}

// NewQueue 创建回放队列。sink 在每个阶段开始时被调用（播放线程上）。
func NewQueue(stepDur, pauseDur time.Duration, sink func(Event)) *Queue {
	q := &Queue{
		stepDur:  stepDur,
		pauseDur: pauseDur,
		sink:     sink,
		players:  make(map[string]*playerLine),
		done:     make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue 入队若干序列。若该玩家没有在播的序列则立刻起播，
// 否则排在当前序列之后，绝不插播。
func (q *Queue) Enqueue(seqs ...Sequence) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for _, seq := range seqs {
		if len(seq.Events) == 0 {
			continue
		}
		line, ok := q.players[seq.PlayerID]
		if !ok {
			line = &playerLine{}
			q.players[seq.PlayerID] = line
		}
		line.pending = append(line.pending, seq)
		if !line.draining {
			line.draining = true
			go q.drain(seq.PlayerID, line)
		}
	}
}

// drain 播放线程：吃空该玩家的队列后退出
func (q *Queue) drain(playerID string, line *playerLine) {
	for {
		q.mu.Lock()
		if q.closed || len(line.pending) == 0 {
			line.draining = false
			q.cond.Broadcast()
			q.mu.Unlock()
			return
		}
		seq := line.pending[0]
		line.pending = line.pending[1:]
		q.mu.Unlock()

		for _, ev := range seq.Events {
			q.sink(ev)
			if !q.wait(q.duration(ev.Kind)) {
				q.mu.Lock()
				line.draining = false
				q.cond.Broadcast()
				q.mu.Unlock()
				return
			}
		}
	}
}

func (q *Queue) duration(kind PhaseKind) time.Duration {
	switch kind {
	case PhaseEffectPause:
		return q.pauseDur
	case PhaseSnap:
		return 0
	default:
		return q.stepDur
	}
}

// wait 可取消的阶段停顿
func (q *Queue) wait(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-q.done:
		return false
	case <-time.After(d):
		return true
	}
}

// Flush 阻塞到所有玩家的序列播完，测试和退出清场用
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.busyLocked() {
		q.cond.Wait()
	}
}

func (q *Queue) busyLocked() bool {
	for _, line := range q.players {
		if line.draining || len(line.pending) > 0 {
			return true
		}
	}
	return false
}

// Close 取消所有在播和待播的序列
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.done)
	for _, line := range q.players {
		line.pending = nil
	}
	q.cond.Broadcast()
	q.mu.Unlock()
}
