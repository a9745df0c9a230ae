package main

import (
	"net/http"
	"strings"
	"testing"
)

func TestStartGameRequiresParticipants(t *testing.T) {
	_, _, mux := newTestServer(t)

	w := doRequest(t, mux, http.MethodPut, "/api/game/start", nil)
	assertStatus(t, w, http.StatusConflict)
	assertErrorCode(t, w, "NO_PARTICIPANTS")
}

func TestStartGame(t *testing.T) {
	_, _, mux := newTestServer(t)

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		registerTestParticipant(t, mux, name)
	}

	w := doRequest(t, mux, http.MethodPut, "/api/game/start", nil)
	assertStatus(t, w, http.StatusOK)

	var resp gameStateResponse
	decodeJSON(t, w, &resp)

	if resp.GamePhase != phaseActive {
		t.Errorf("Expected phase %q, got %q", phaseActive, resp.GamePhase)
	}
	if resp.CurrentTurn == nil || *resp.CurrentTurn != 1 {
		t.Errorf("Expected first turn to be participant 1, got %v", resp.CurrentTurn)
	}
	if resp.CurrentParticipant == nil || resp.CurrentParticipant.Name != "Alice" {
		t.Errorf("Expected Alice to hold the first turn, got %+v", resp.CurrentParticipant)
	}
	if !strings.Contains(resp.Message, "Alice") {
		t.Errorf("Expected the start message to name the first player, got %q", resp.Message)
	}

	// Starting twice is a conflict
	w = doRequest(t, mux, http.MethodPut, "/api/game/start", nil)
	assertStatus(t, w, http.StatusConflict)
	assertErrorCode(t, w, "GAME_ALREADY_STARTED")
}

func TestNextTurnBeforeStart(t *testing.T) {
	_, _, mux := newTestServer(t)

	registerTestParticipant(t, mux, "Alice")

	w := doRequest(t, mux, http.MethodPut, "/api/game/next-turn", nil)
	assertStatus(t, w, http.StatusConflict)
	assertErrorCode(t, w, "GAME_NOT_STARTED")
}

func TestTurnProgression(t *testing.T) {
	_, _, mux := newTestServer(t)

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		registerTestParticipant(t, mux, name)
	}
	doRequest(t, mux, http.MethodPut, "/api/game/start", nil)

	var resp gameStateResponse

	w := doRequest(t, mux, http.MethodPut, "/api/game/next-turn", nil)
	assertStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &resp)
	if resp.CurrentTurn == nil || *resp.CurrentTurn != 2 {
		t.Errorf("Expected turn 2, got %v", resp.CurrentTurn)
	}
	if resp.Message != "Advanced to next turn" {
		t.Errorf("Unexpected advance message: %q", resp.Message)
	}

	w = doRequest(t, mux, http.MethodPut, "/api/game/next-turn", nil)
	decodeJSON(t, w, &resp)
	if resp.CurrentTurn == nil || *resp.CurrentTurn != 3 {
		t.Errorf("Expected turn 3, got %v", resp.CurrentTurn)
	}

	// The step past the last entry completes the game
	w = doRequest(t, mux, http.MethodPut, "/api/game/next-turn", nil)
	assertStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &resp)
	if resp.CurrentTurn != nil {
		t.Errorf("Expected no current turn at completion, got %v", resp.CurrentTurn)
	}
	if resp.GamePhase != phaseCompleted {
		t.Errorf("Expected phase %q, got %q", phaseCompleted, resp.GamePhase)
	}
	if !strings.Contains(resp.Message, "Game completed") {
		t.Errorf("Expected completion message, got %q", resp.Message)
	}

	// Advancing a completed game is idempotent
	w = doRequest(t, mux, http.MethodPut, "/api/game/next-turn", nil)
	assertStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &resp)
	if resp.GamePhase != phaseCompleted || resp.CurrentTurn != nil {
		t.Errorf("Expected completion to be re-reported, got %+v", resp)
	}

	// The admin undo steps back into the active phase
	w = doRequest(t, mux, http.MethodPut, "/api/game/previous-turn", nil)
	assertStatus(t, w, http.StatusOK)
	decodeJSON(t, w, &resp)
	if resp.GamePhase != phaseActive {
		t.Errorf("Expected phase %q after stepping back, got %q", phaseActive, resp.GamePhase)
	}
	if resp.CurrentTurn == nil || *resp.CurrentTurn != 3 {
		t.Errorf("Expected turn 3 restored, got %v", resp.CurrentTurn)
	}
	if resp.Message != "Went back to previous turn" {
		t.Errorf("Unexpected message: %q", resp.Message)
	}
}

func TestPreviousTurnAtFirstEntry(t *testing.T) {
	_, _, mux := newTestServer(t)

	registerTestParticipant(t, mux, "Alice")
	registerTestParticipant(t, mux, "Bob")
	doRequest(t, mux, http.MethodPut, "/api/game/start", nil)

	w := doRequest(t, mux, http.MethodPut, "/api/game/previous-turn", nil)
	assertStatus(t, w, http.StatusConflict)
	assertErrorCode(t, w, "AT_FIRST_TURN")
}

func TestPreviousTurnBeforeStart(t *testing.T) {
	_, _, mux := newTestServer(t)

	w := doRequest(t, mux, http.MethodPut, "/api/game/previous-turn", nil)
	assertStatus(t, w, http.StatusConflict)
	assertErrorCode(t, w, "NO_PARTICIPANTS")

	registerTestParticipant(t, mux, "Alice")

	w = doRequest(t, mux, http.MethodPut, "/api/game/previous-turn", nil)
	assertStatus(t, w, http.StatusConflict)
	assertErrorCode(t, w, "GAME_NOT_STARTED")
}

func TestCurrentTurnIsReadOnly(t *testing.T) {
	_, store, mux := newTestServer(t)

	registerTestParticipant(t, mux, "Alice")
	registerTestParticipant(t, mux, "Bob")

	w := doRequest(t, mux, http.MethodGet, "/api/game/current-turn", nil)
	assertStatus(t, w, http.StatusOK)

	var resp currentTurnResponse
	decodeJSON(t, w, &resp)

	if resp.GamePhase != phaseRegistration {
		t.Errorf("Expected phase %q, got %q", phaseRegistration, resp.GamePhase)
	}
	if resp.CurrentTurn != nil {
		t.Errorf("Expected no current turn before start, got %v", resp.CurrentTurn)
	}
	if len(resp.TurnOrder) != 0 {
		t.Errorf("Expected no turn order before start, got %v", resp.TurnOrder)
	}
	if resp.TotalParticipants != 2 {
		t.Errorf("Expected 2 participants, got %d", resp.TotalParticipants)
	}

	// The read must not have derived a provisional turn order
	doc, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(doc.GameState.TurnOrder) != 0 {
		t.Errorf("Expected the stored turn order untouched, got %v", doc.GameState.TurnOrder)
	}
}

func TestCurrentTurnResolvesParticipant(t *testing.T) {
	_, _, mux := newTestServer(t)

	registerTestParticipant(t, mux, "Alice")
	registerTestParticipant(t, mux, "Bob")
	doRequest(t, mux, http.MethodPut, "/api/game/start", nil)

	w := doRequest(t, mux, http.MethodGet, "/api/game/current-turn", nil)
	assertStatus(t, w, http.StatusOK)

	var resp currentTurnResponse
	decodeJSON(t, w, &resp)

	if resp.CurrentParticipant == nil || resp.CurrentParticipant.Name != "Alice" {
		t.Errorf("Expected the current participant resolved, got %+v", resp.CurrentParticipant)
	}
	if len(resp.TurnOrder) != 2 {
		t.Errorf("Expected turn order of 2, got %v", resp.TurnOrder)
	}
}

func TestTurnOrderFixedAtStart(t *testing.T) {
	_, _, mux := newTestServer(t)

	registerTestParticipant(t, mux, "Alice")
	registerTestParticipant(t, mux, "Bob")
	doRequest(t, mux, http.MethodPut, "/api/game/start", nil)

	// Late registrations do not join the running game's order
	registerTestParticipant(t, mux, "Carol")

	w := doRequest(t, mux, http.MethodGet, "/api/game/current-turn", nil)

	var resp currentTurnResponse
	decodeJSON(t, w, &resp)

	if len(resp.TurnOrder) != 2 {
		t.Errorf("Expected the snapshot order to stay at 2 entries, got %v", resp.TurnOrder)
	}
	if resp.TotalParticipants != 3 {
		t.Errorf("Expected 3 registered participants, got %d", resp.TotalParticipants)
	}
}

func TestNuclearReset(t *testing.T) {
	_, store, mux := newTestServer(t)

	registerTestParticipant(t, mux, "Alice")
	registerTestParticipant(t, mux, "Bob")
	addTestGift(t, mux, "Lego Set", intPtr(1))
	doRequest(t, mux, http.MethodPut, "/api/game/start", nil)

	w := doRequest(t, mux, http.MethodPost, "/api/nuclear/reset", nil)
	assertStatus(t, w, http.StatusOK)

	var resp nuclearResetResponse
	decodeJSON(t, w, &resp)

	if !resp.Success {
		t.Error("Expected the reset to report success")
	}
	if resp.Deleted.Participants != 2 || resp.Deleted.Gifts != 1 {
		t.Errorf("Expected 2 participants and 1 gift deleted, got %+v", resp.Deleted)
	}

	doc, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(doc.Participants) != 0 || len(doc.Gifts) != 0 {
		t.Errorf("Expected an empty document after reset, got %+v", doc)
	}
	if doc.GameState.GamePhase != phaseRegistration {
		t.Errorf("Expected phase %q after reset, got %q", phaseRegistration, doc.GameState.GamePhase)
	}
}
