package room

import "time"

// Broadcaster defines the interface for pushing messages to every
// connection subscribed to a game. Defined here to break the import
// cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToGame(gameID string, msgID uint16, data []byte) error
}

// Recorder persists authoritative snapshots and finished games.
// Implementations must tolerate being called from timer goroutines.
type Recorder interface {
	SaveSnapshot(gameID, variant, state string, snapshot interface{}) error
	RecordCompleted(gameID, variant string, snapshot interface{}) error
}

// Metrics 只统计真正落子的结算，被守卫拒绝的提交不计入
type Metrics interface {
	IncRollsResolved()
	ObserveResolveLatency(d time.Duration)
}
