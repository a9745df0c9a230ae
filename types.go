package main

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	maxParticipants = 100
	stealLockLimit  = 3

	maxParticipantNameLength = 50
	minParticipantNameLength = 2
	maxGiftNameLength        = 100
)

// Game lifecycle phases. Forward-only except for the previous-turn
// admin command, which can step completed back to active.
const (
	phaseRegistration = "registration"
	phaseActive       = "active"
	phaseCompleted    = "completed"
)

type Participant struct {
	ID                    int    `json:"id"`
	Name                  string `json:"name"`
	RegistrationTimestamp string `json:"registration_timestamp"`
}

type Gift struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StealCount   int    `json:"steal_count"`
	IsLocked     bool   `json:"is_locked"`
	CurrentOwner *int   `json:"current_owner"`
	StealHistory []int  `json:"steal_history"`
}

func newGift(id, name string, ownerID *int) Gift {
	return Gift{
		ID:           id,
		Name:         name,
		CurrentOwner: ownerID,
		StealHistory: []int{},
	}
}

// steal transfers ownership to newOwnerID, recording the taker and
// locking the gift once the third steal lands. Returns false without
// touching any field when the gift is already locked.
func (g *Gift) steal(newOwnerID int) bool {
	if g.IsLocked {
		return false
	}

	g.StealHistory = append(g.StealHistory, newOwnerID)
	g.StealCount++
	owner := newOwnerID
	g.CurrentOwner = &owner

	if g.StealCount >= stealLockLimit {
		g.IsLocked = true
	}

	return true
}

// resetSteals clears the counter and lock but never the history log,
// which is a permanent record of every steal. Returns false when there
// was nothing to reset.
func (g *Gift) resetSteals() bool {
	if g.StealCount == 0 && !g.IsLocked {
		return false
	}

	g.StealCount = 0
	g.IsLocked = false

	return true
}

type GameState struct {
	CurrentTurn *int   `json:"current_turn"`
	TurnOrder   []int  `json:"turn_order"`
	GamePhase   string `json:"game_phase"`
}

func newGameState() GameState {
	return GameState{
		TurnOrder: []int{},
		GamePhase: phaseRegistration,
	}
}

// start snapshots the given participant ids as the fixed turn order and
// hands the first entry the turn. The order never grows afterward, even
// if more participants register.
func (gs *GameState) start(participantIDs []int) {
	gs.TurnOrder = slices.Clone(participantIDs)
	gs.GamePhase = phaseActive
	if len(gs.TurnOrder) > 0 {
		first := gs.TurnOrder[0]
		gs.CurrentTurn = &first
	}
}

// nextTurn advances the pointer, completing the game once it moves past
// the last entry.
func (gs *GameState) nextTurn() {
	if gs.CurrentTurn == nil || len(gs.TurnOrder) == 0 {
		return
	}

	idx := slices.Index(gs.TurnOrder, *gs.CurrentTurn)
	if idx < 0 {
		// Pointer fell out of the order somehow, reset to the first entry
		first := gs.TurnOrder[0]
		gs.CurrentTurn = &first

		return
	}

	if idx+1 >= len(gs.TurnOrder) {
		gs.CurrentTurn = nil
		gs.GamePhase = phaseCompleted

		return
	}

	next := gs.TurnOrder[idx+1]
	gs.CurrentTurn = &next
}

// previousTurn steps the pointer back one entry, reopening a completed
// game at its last turn. Returns false when already at the first entry
// or when no turn order exists yet.
func (gs *GameState) previousTurn() bool {
	if len(gs.TurnOrder) == 0 {
		return false
	}

	if gs.GamePhase == phaseCompleted {
		last := gs.TurnOrder[len(gs.TurnOrder)-1]
		gs.CurrentTurn = &last
		gs.GamePhase = phaseActive

		return true
	}

	if gs.CurrentTurn == nil {
		return false
	}

	idx := slices.Index(gs.TurnOrder, *gs.CurrentTurn)
	if idx < 0 {
		first := gs.TurnOrder[0]
		gs.CurrentTurn = &first

		return true
	}

	if idx == 0 {
		return false
	}

	prev := gs.TurnOrder[idx-1]
	gs.CurrentTurn = &prev

	return true
}

func validateParticipantName(name string) (string, error) {
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return "", validationError("EMPTY_NAME", "Name cannot be empty")
	case utf8.RuneCountInString(name) < minParticipantNameLength:
		return "", validationError("NAME_TOO_SHORT", "Name must be at least %d characters long", minParticipantNameLength)
	case utf8.RuneCountInString(name) > maxParticipantNameLength:
		return "", validationError("NAME_TOO_LONG", "Name must not exceed %d characters", maxParticipantNameLength)
	}

	return name, nil
}

func validateGiftName(name string) (string, error) {
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return "", validationError("EMPTY_GIFT_NAME", "Gift name cannot be empty")
	case utf8.RuneCountInString(name) > maxGiftNameLength:
		return "", validationError("GIFT_NAME_TOO_LONG", "Gift name must not exceed %d characters", maxGiftNameLength)
	}

	return name, nil
}

func validateParticipantID(id int) error {
	if id < 1 || id > maxParticipants {
		return validationError("INVALID_PARTICIPANT_ID_RANGE", "Participant ID must be between 1 and %d", maxParticipants)
	}

	return nil
}
