package state

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/wfunc/spacerace/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockState is a test double for the State interface.
// It helps us track which methods have been called.
type MockState struct {
	ID             string
	OnEnterCalled  bool
	OnExitCalled   bool
	OnUpdateCalled bool
}

func (m *MockState) OnEnter() {
	m.OnEnterCalled = true
}

func (m *MockState) OnExit() {
	m.OnExitCalled = true
}

func (m *MockState) OnUpdate() {
	m.OnUpdateCalled = true
}

func (m *MockState) GetID() string {
	return m.ID
}

func (m *MockState) HandleAction(player Player, actionData []byte) error {
	return nil
}

// reset clears the call tracking flags.
func (m *MockState) reset() {
	m.OnEnterCalled = false
	m.OnExitCalled = false
	m.OnUpdateCalled = false
}

func TestStateMachine_InitialState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	sm := NewBaseStateMachine(initialState)

	if !initialState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the initial state")
	}

	if sm.GetCurrentState() != initialState {
		t.Error("GetCurrentState should return the initial state")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	nextState := &MockState{ID: "next"}

	sm := NewBaseStateMachine(initialState)
	initialState.reset() // Reset after initialization

	err := sm.ChangeState(nextState)
	if err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}

	if !initialState.OnExitCalled {
		t.Error("Expected OnExit to be called on the old state")
	}

	if !nextState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the new state")
	}

	if sm.GetCurrentState() != nextState {
		t.Error("GetCurrentState should return the new state")
	}
}

func TestStateMachine_AddAndUseTransition(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}
	stateC := &MockState{ID: "C"}

	sm := NewBaseStateMachine(stateA)

	// Add a valid transition from A to B
	if err := sm.AddTransition(stateA, stateB, func() bool { return true }); err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	// Add a blocked transition from B to C
	if err := sm.AddTransition(stateB, stateC, func() bool { return false }); err != nil {
		t.Fatalf("AddTransition failed: %v", err)
	}

	if err := sm.ChangeState(stateB); err != nil {
		t.Errorf("Expected transition from A to B to be allowed, but got error: %v", err)
	}

	stateB.reset()
	if err := sm.ChangeState(stateC); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, but got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state to remain B, but got %s", sm.GetCurrentState().GetID())
	}
	if stateB.OnExitCalled {
		t.Error("OnExit should not be called on the current state if transition is blocked")
	}
	if stateC.OnEnterCalled {
		t.Error("OnEnter should not be called on the new state if transition is blocked")
	}
}

// MockGameContext is a test double for the GameContext interface.
type MockGameContext struct {
	id          string
	variant     string
	playerCount int
	currentID   string
	paused      bool
	beganFor    string
	changedTo   State
}

func (m *MockGameContext) GetID() string           { return m.id }
func (m *MockGameContext) GetVariant() string      { return m.variant }
func (m *MockGameContext) PlayerCount() int        { return m.playerCount }
func (m *MockGameContext) CurrentPlayerID() string { return m.currentID }
func (m *MockGameContext) IsPaused() bool          { return m.paused }

func (m *MockGameContext) BeginRoll(playerID string) error {
	m.beganFor = playerID
	return nil
}

func (m *MockGameContext) ChangeState(newState State) error {
	m.changedTo = newState
	return nil
}

func (m *MockGameContext) Broadcast(msgID uint16, data []byte) error { return nil }

type fakePlayer string

func (p fakePlayer) GetID() string { return string(p) }

func rollAction(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(Action{Type: ActionRoll})
	if err != nil {
		t.Fatalf("marshal action: %v", err)
	}
	return data
}

func TestWaitingState_StartsWhenRosterFills(t *testing.T) {
	ctx := &MockGameContext{id: "g1", playerCount: 1}
	waiting := NewWaitingState(ctx)

	waiting.OnUpdate()
	if ctx.changedTo != nil {
		t.Error("Should not start the game with a single player")
	}

	ctx.playerCount = 2
	waiting.OnUpdate()
	if ctx.changedTo == nil || ctx.changedTo.GetID() != StateAwaitingRoll {
		t.Errorf("Expected transition to %s, got %v", StateAwaitingRoll, ctx.changedTo)
	}
}

func TestAwaitingRollState_AcceptsCurrentPlayer(t *testing.T) {
	ctx := &MockGameContext{id: "g1", playerCount: 2, currentID: "p1"}
	awaiting := NewAwaitingRollState(ctx)

	if err := awaiting.HandleAction(fakePlayer("p1"), rollAction(t)); err != nil {
		t.Fatalf("HandleAction returned error: %v", err)
	}
	if ctx.beganFor != "p1" {
		t.Errorf("Expected BeginRoll for p1, got %q", ctx.beganFor)
	}
}

func TestAwaitingRollState_IgnoresStaleRoll(t *testing.T) {
	ctx := &MockGameContext{id: "g1", playerCount: 2, currentID: "p1"}
	awaiting := NewAwaitingRollState(ctx)

	if err := awaiting.HandleAction(fakePlayer("p2"), rollAction(t)); err != nil {
		t.Fatalf("A stale roll must be a benign no-op, got error: %v", err)
	}
	if ctx.beganFor != "" {
		t.Errorf("BeginRoll must not run for a non-current player, got %q", ctx.beganFor)
	}
}

func TestAwaitingRollState_IgnoresRollWhilePaused(t *testing.T) {
	ctx := &MockGameContext{id: "g1", playerCount: 2, currentID: "p1", paused: true}
	awaiting := NewAwaitingRollState(ctx)

	if err := awaiting.HandleAction(fakePlayer("p1"), rollAction(t)); err != nil {
		t.Fatalf("A roll while paused must be a benign no-op, got error: %v", err)
	}
	if ctx.beganFor != "" {
		t.Errorf("BeginRoll must not run while paused, got %q", ctx.beganFor)
	}
}

func TestResolvingState_DropsActions(t *testing.T) {
	ctx := &MockGameContext{id: "g1", playerCount: 2, currentID: "p1"}
	resolving := NewResolvingState(ctx)

	if err := resolving.HandleAction(fakePlayer("p1"), rollAction(t)); err != nil {
		t.Fatalf("Duplicate submits during resolution must be dropped, got error: %v", err)
	}
	if ctx.beganFor != "" {
		t.Errorf("BeginRoll must not run during resolution, got %q", ctx.beganFor)
	}
}
