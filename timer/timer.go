// timer/timer.go
package timer

import (
	"container/heap"
	"sync"
	"time"
)

// task 一次性的延迟回调，房间用它编排掷骰演出的节奏
type task struct {
	id       int64
	deadline time.Time
	callback func()
	index    int
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].deadline.Before(q[j].deadline)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	n := len(*q)
	t := x.(*task)
	t.index = n
	*q = append(*q, t)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	t.index = -1
	*q = old[0 : n-1]
	return t
}

// TimerManager 集中调度一次性延迟回调。到期检查每 20ms 一次，
// 比演出延迟小一个数量级，掷骰节奏不会被调度粒度拖坏。
type TimerManager struct {
	queue  taskQueue
	mutex  sync.Mutex
	nextId int64
	quit   chan struct{}
}

func NewTimerManager() *TimerManager {
	manager := &TimerManager{
		queue:  make(taskQueue, 0),
		nextId: 1,
		quit:   make(chan struct{}),
	}
	heap.Init(&manager.queue)
	go manager.process()
	return manager
}

// Stop 终止处理循环，已入队未触发的任务不再执行
func (m *TimerManager) Stop() {
	close(m.quit)
}

// AddTimer 注册一次性回调，返回的ID可用于取消
func (m *TimerManager) AddTimer(delay time.Duration, callback func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t := &task{
		id:       m.nextId,
		deadline: time.Now().Add(delay),
		callback: callback,
	}
	m.nextId++

	heap.Push(&m.queue, t)
	return t.id
}

// RemoveTimer 取消尚未触发的回调，已触发的调用无效果
func (m *TimerManager) RemoveTimer(timerId int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for i, t := range m.queue {
		if t.id == timerId {
			heap.Remove(&m.queue, i)
			break
		}
	}
}

func (m *TimerManager) process() {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			now := time.Now()
			var due []*task

			m.mutex.Lock()
			for m.queue.Len() > 0 {
				t := m.queue[0]
				if t.deadline.After(now) {
					break
				}
				heap.Pop(&m.queue)
				due = append(due, t)
			}
			m.mutex.Unlock()

			// 回调在锁外起跑，避免回调里再次注册定时器时死锁
			for _, t := range due {
				go t.callback()
			}
		}
	}
}
