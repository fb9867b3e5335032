package network

const (
	MsgTypeHeartbeat  = 1
	MsgTypeCreateGame = 101
	MsgTypeJoinGame   = 102
	MsgTypeLeaveGame  = 103
	MsgTypeRollDice   = 201
	MsgTypePauseGame  = 202
	MsgTypeResumeGame = 203
	MsgTypeResetGame  = 204
	MsgTypeSnapshot   = 301
	MsgTypeOutcome    = 302
	MsgTypeError      = 401
)
