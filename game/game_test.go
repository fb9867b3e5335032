package game

import (
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	if name, err := SanitizeName("  Alice 42 "); err != nil || name != "Alice 42" {
		t.Errorf("Expected trimmed valid name, got %q err=%v", name, err)
	}

	for _, bad := range []string{"", "   ", "bad!name", "名字", strings.Repeat("a", 21)} {
		if _, err := SanitizeName(bad); err != ErrInvalidName {
			t.Errorf("Expected ErrInvalidName for %q, got %v", bad, err)
		}
	}

	if _, err := SanitizeName(strings.Repeat("a", 20)); err != nil {
		t.Errorf("20 characters should be allowed, got %v", err)
	}
}

func TestNewGame_UnknownVariant(t *testing.T) {
	if _, err := NewGame("g1", "no_such_variant", &Player{ID: "p1", Name: "Alice"}); err != ErrUnknownVariant {
		t.Errorf("Expected ErrUnknownVariant, got %v", err)
	}
}

func TestGame_CloneIsDeep(t *testing.T) {
	g, err := NewGame("g1", "galaxy", &Player{ID: "p1", Name: "Alice"})
	if err != nil {
		t.Fatalf("NewGame returned error: %v", err)
	}

	cp := g.Clone()
	cp.Players[0].Position = 42
	cp.TurnCount = 9

	if g.Players[0].Position != 0 {
		t.Error("Clone shares player pointers with the original")
	}
	if g.TurnCount != 0 {
		t.Error("Clone shares scalar state with the original")
	}
}

func TestGame_CurrentPlayer(t *testing.T) {
	g, _ := NewGame("g1", "galaxy", &Player{ID: "p1", Name: "Alice"})
	if p := g.CurrentPlayer(); p == nil || p.ID != "p1" {
		t.Errorf("Expected current player p1, got %v", p)
	}

	g.CurrentPlayerIndex = 5
	if p := g.CurrentPlayer(); p != nil {
		t.Errorf("Expected nil for an out-of-range index, got %v", p)
	}
}
