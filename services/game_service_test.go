package services

import (
	"testing"
	"time"

	"github.com/wfunc/spacerace/game"
	"github.com/wfunc/spacerace/models"
	"github.com/wfunc/spacerace/persistence"
)

// MockDatabase is a test double for the persistence.Database interface.
type MockDatabase struct {
	savedStates  map[string]string // gameID -> state
	savedRecords []*models.GameRecord
	statsQueries []string
}

func newMockDatabase() *MockDatabase {
	return &MockDatabase{savedStates: make(map[string]string)}
}

func (m *MockDatabase) SaveGameState(gameID, variant, state string, snapshot interface{}) error {
	m.savedStates[gameID] = state
	return nil
}

func (m *MockDatabase) LoadGameState(gameID string) (*models.GameState, error) {
	state, ok := m.savedStates[gameID]
	if !ok {
		return nil, persistence.ErrRecordNotFound
	}
	return &models.GameState{GameID: gameID, State: state}, nil
}

func (m *MockDatabase) SaveGameRecord(record *models.GameRecord, snapshot interface{}) error {
	m.savedRecords = append(m.savedRecords, record)
	return nil
}

func (m *MockDatabase) GetPlayerStats(name string) (*models.PlayerStats, error) {
	m.statsQueries = append(m.statsQueries, name)
	return &models.PlayerStats{TotalGames: 3, Wins: 2, Losses: 1}, nil
}

func (m *MockDatabase) Close() error {
	return nil
}

func wonGame() *game.Game {
	now := time.Now()
	return &game.Game{
		ID:        "g1",
		Variant:   "galaxy",
		GameWon:   true,
		Winner:    "p1",
		TurnCount: 12,
		Players: []*game.Player{
			{ID: "p1", Name: "Alice", Position: 100, BoostsUsed: 2, HazardsHit: 1},
			{ID: "p2", Name: "Bob", Position: 40, BoostsUsed: 1},
		},
		CompletedAt: &now,
	}
}

func TestGameService_SaveAndLoadSnapshot(t *testing.T) {
	db := newMockDatabase()
	svc := NewGameService(db)

	if err := svc.SaveSnapshot("g1", "galaxy", "awaiting_roll", wonGame()); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	st, err := svc.LoadGameState("g1")
	if err != nil {
		t.Fatalf("LoadGameState failed: %v", err)
	}
	if st.GameID != "g1" || st.State != "awaiting_roll" {
		t.Errorf("Expected saved state back, got %+v", st)
	}

	if _, err := svc.LoadGameState("missing"); err != persistence.ErrRecordNotFound {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestGameService_RecordCompleted(t *testing.T) {
	db := newMockDatabase()
	svc := NewGameService(db)

	if err := svc.RecordCompleted("g1", "galaxy", wonGame()); err != nil {
		t.Fatalf("RecordCompleted failed: %v", err)
	}
	if len(db.savedRecords) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(db.savedRecords))
	}

	rec := db.savedRecords[0]
	if rec.WinnerID != "p1" || rec.TurnCount != 12 {
		t.Errorf("Expected winner p1 after 12 turns, got %s/%d", rec.WinnerID, rec.TurnCount)
	}
	outcomes := map[string]string{}
	for _, pi := range rec.Players {
		outcomes[pi.Name] = pi.Outcome
	}
	if outcomes["Alice"] != "win" || outcomes["Bob"] != "lose" {
		t.Errorf("Expected Alice win / Bob lose, got %v", outcomes)
	}
}

func TestGameService_RecordCompletedRejectsUnfinished(t *testing.T) {
	svc := NewGameService(newMockDatabase())

	g := wonGame()
	g.GameWon = false
	if err := svc.RecordCompleted("g1", "galaxy", g); err == nil {
		t.Error("Expected an error for an unfinished game")
	}
	if err := svc.RecordCompleted("g1", "galaxy", "not a game"); err == nil {
		t.Error("Expected an error for a snapshot of the wrong type")
	}
}

func TestGameService_GetPlayerStatsSanitizesName(t *testing.T) {
	db := newMockDatabase()
	svc := NewGameService(db)

	stats, err := svc.GetPlayerStats("  Alice ")
	if err != nil {
		t.Fatalf("GetPlayerStats failed: %v", err)
	}
	if stats.Wins != 2 {
		t.Errorf("Expected 2 wins, got %d", stats.Wins)
	}
	if len(db.statsQueries) != 1 || db.statsQueries[0] != "Alice" {
		t.Errorf("Expected the trimmed name to reach the store, got %v", db.statsQueries)
	}

	if _, err := svc.GetPlayerStats("bad!name"); err != game.ErrInvalidName {
		t.Errorf("Expected ErrInvalidName, got %v", err)
	}
}
