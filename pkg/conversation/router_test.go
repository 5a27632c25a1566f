package conversation

import (
	"errors"
	"testing"

	"roundtable-hq/roundtable/pkg/persona"
)

func TestRouterManualMode(t *testing.T) {
	router := NewRouter(ModeManual)
	roster := testRoster()

	// The hint is returned verbatim, empty or not.
	next, err := router.NextTurn(&TurnDecision{NextPersonaID: "p2"}, roster, NewRoundRobinStrategy())
	if err != nil || next != "p2" {
		t.Errorf("NextTurn = %q, %v", next, err)
	}

	next, err = router.NextTurn(&TurnDecision{}, roster, NewRoundRobinStrategy())
	if err != nil || next != "" {
		t.Errorf("NextTurn with empty hint = %q, %v; manual mode must not fall back", next, err)
	}
}

func TestRouterAutomaticMode(t *testing.T) {
	router := NewRouter(ModeAutomatic)
	roster := testRoster()

	// Hint wins.
	next, err := router.NextTurn(&TurnDecision{NextPersonaID: "p3"}, roster, NewRoundRobinStrategy())
	if err != nil || next != "p3" {
		t.Errorf("NextTurn = %q, %v", next, err)
	}

	// No hint: fallback picks.
	next, err = router.NextTurn(&TurnDecision{}, roster, NewRoundRobinStrategy())
	if err != nil || next != "p1" {
		t.Errorf("fallback NextTurn = %q, %v", next, err)
	}

	// No hint, no fallback: empty, not an error.
	next, err = router.NextTurn(nil, roster, nil)
	if err != nil || next != "" {
		t.Errorf("NextTurn without fallback = %q, %v", next, err)
	}
}

func TestRouterEndedConversation(t *testing.T) {
	router := NewRouter(ModeAutomatic)
	router.End()

	if router.State() != StateEnded {
		t.Fatalf("State = %q", router.State())
	}

	_, err := router.NextTurn(&TurnDecision{NextPersonaID: "p1"}, testRoster(), nil)

	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("error = %v, want *InvalidStateError", err)
	}
	if stateErr.State != StateEnded {
		t.Errorf("error state = %q", stateErr.State)
	}

	// Ending twice stays ended.
	router.End()
	if router.State() != StateEnded {
		t.Errorf("State after double End = %q", router.State())
	}
}

func TestRoundRobinCycles(t *testing.T) {
	roster := persona.NewRoster([]persona.Persona{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
	})
	s := NewRoundRobinStrategy()

	var got []string
	for i := 0; i < 6; i++ {
		p, err := s.Next(roster)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, p.ID)
	}

	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence = %v, want %v", got, want)
		}
	}
}

func TestRoundRobinEmptyRoster(t *testing.T) {
	s := NewRoundRobinStrategy()
	if _, err := s.Next(persona.NewRoster(nil)); err == nil {
		t.Error("expected error on empty roster")
	}
}

func TestLeastRecentPrefersSilentPersonas(t *testing.T) {
	roster := persona.NewRoster([]persona.Persona{
		{ID: "a", Name: "A"},
		{ID: "b", Name: "B"},
		{ID: "c", Name: "C"},
	})
	s := NewLeastRecentStrategy()

	// Nobody spoke yet: roster order.
	p, err := s.Next(roster)
	if err != nil || p.ID != "a" {
		t.Fatalf("Next = %q, %v", p.ID, err)
	}

	s.Record("a")
	s.Record("b")

	// C never spoke, so it wins over both.
	p, _ = s.Next(roster)
	if p.ID != "c" {
		t.Errorf("Next = %q, want c", p.ID)
	}

	s.Record("c")

	// Everyone spoke; A spoke longest ago.
	p, _ = s.Next(roster)
	if p.ID != "a" {
		t.Errorf("Next = %q, want a", p.ID)
	}
}
