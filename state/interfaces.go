// state/interfaces.go
package state

// Player defines the minimal interface for a player entity that a state needs to interact with.
type Player interface {
	GetID() string
}

// GameContext defines the interface that a Room must implement to be driven
// by the turn state machine. This breaks the import cycle between room and state.
type GameContext interface {
	GetID() string
	GetVariant() string
	PlayerCount() int
	CurrentPlayerID() string
	IsPaused() bool
	BeginRoll(playerID string) error
	ChangeState(newState State) error
	Broadcast(msgID uint16, data []byte) error
}
