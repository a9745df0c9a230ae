package main

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/julienschmidt/httprouter"
)

type currentTurnResponse struct {
	CurrentTurn        *int         `json:"current_turn"`
	CurrentParticipant *Participant `json:"current_participant"`
	GamePhase          string       `json:"game_phase"`
	TurnOrder          []int        `json:"turn_order"`
	TotalParticipants  int          `json:"total_participants"`
}

type gameStateResponse struct {
	Success            bool         `json:"success"`
	Message            string       `json:"message"`
	CurrentTurn        *int         `json:"current_turn"`
	CurrentParticipant *Participant `json:"current_participant"`
	GamePhase          string       `json:"game_phase"`
}

type nuclearResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted struct {
		Participants int `json:"participants"`
		Gifts        int `json:"gifts"`
	} `json:"deleted"`
}

func currentParticipant(doc *Document) *Participant {
	if doc.GameState.CurrentTurn == nil {
		return nil
	}

	return doc.findParticipant(*doc.GameState.CurrentTurn)
}

// serveCurrentTurn is strictly read-only: even before the game starts
// it reports the registration phase as-is rather than deriving a
// provisional turn order.
func serveCurrentTurn(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		doc, err := store.Read()
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		writeJSON(cfg, w, http.StatusOK, currentTurnResponse{
			CurrentTurn:        doc.GameState.CurrentTurn,
			CurrentParticipant: currentParticipant(doc),
			GamePhase:          doc.GameState.GamePhase,
			TurnOrder:          doc.GameState.TurnOrder,
			TotalParticipants:  len(doc.Participants),
		})
	}
}

// serveStartGame snapshots the registration order (ascending slot
// numbers) into the fixed turn order and opens the active phase with
// the first entry's turn.
func serveStartGame(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var state Participant

		doc, err := store.Update(func(doc *Document) error {
			if len(doc.Participants) == 0 {
				return conflictError("NO_PARTICIPANTS", "No participants registered")
			}

			if doc.GameState.GamePhase != phaseRegistration {
				return conflictError("GAME_ALREADY_STARTED", "Game has already started")
			}

			ids := make([]int, 0, len(doc.Participants))
			for _, p := range doc.Participants {
				ids = append(ids, p.ID)
			}
			sort.Ints(ids)

			doc.GameState.start(ids)

			if p := currentParticipant(doc); p != nil {
				state = *p
			}

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		logf(cfg, "SANTA: Game started with %d participants, first turn %d", len(doc.Participants), state.ID)

		writeJSON(cfg, w, http.StatusOK, gameStateResponse{
			Success:            true,
			Message:            fmt.Sprintf("Game started! It's %s's turn.", state.Name),
			CurrentTurn:        doc.GameState.CurrentTurn,
			CurrentParticipant: &state,
			GamePhase:          doc.GameState.GamePhase,
		})
	}
}

// serveNextTurn moves the pointer forward, completing the game past
// the last entry. Calling it on a completed game just re-reports
// completion.
func serveNextTurn(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		doc, err := store.Update(func(doc *Document) error {
			if len(doc.Participants) == 0 {
				return conflictError("NO_PARTICIPANTS", "No participants registered")
			}

			if doc.GameState.GamePhase == phaseRegistration {
				return conflictError("GAME_NOT_STARTED", "Game has not started yet. Please start the game first.")
			}

			doc.GameState.nextTurn()

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		message := "Advanced to next turn"
		if doc.GameState.GamePhase == phaseCompleted {
			message = "Game completed - all participants have had their turn"
		}

		logf(cfg, "SANTA: Turn advanced (phase: %s)", doc.GameState.GamePhase)

		writeJSON(cfg, w, http.StatusOK, gameStateResponse{
			Success:            true,
			Message:            message,
			CurrentTurn:        doc.GameState.CurrentTurn,
			CurrentParticipant: currentParticipant(doc),
			GamePhase:          doc.GameState.GamePhase,
		})
	}
}

// servePreviousTurn is the admin undo: it steps the pointer back one
// entry, or reopens a completed game at its last turn. Gift state is
// deliberately untouched; the two are never transactionally linked.
func servePreviousTurn(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		doc, err := store.Update(func(doc *Document) error {
			if len(doc.Participants) == 0 {
				return conflictError("NO_PARTICIPANTS", "No participants registered")
			}

			if len(doc.GameState.TurnOrder) == 0 {
				return conflictError("GAME_NOT_STARTED", "Game has not started yet")
			}

			if !doc.GameState.previousTurn() {
				return conflictError("AT_FIRST_TURN", "Already at the first turn - cannot go back further")
			}

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		logf(cfg, "SANTA: Turn reverted (phase: %s)", doc.GameState.GamePhase)

		writeJSON(cfg, w, http.StatusOK, gameStateResponse{
			Success:            true,
			Message:            "Went back to previous turn",
			CurrentTurn:        doc.GameState.CurrentTurn,
			CurrentParticipant: currentParticipant(doc),
			GamePhase:          doc.GameState.GamePhase,
		})
	}
}

// serveNuclearReset wipes everything back to the initial empty
// document. There is no undo.
func serveNuclearReset(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var resp nuclearResetResponse

		_, err := store.Update(func(doc *Document) error {
			resp.Deleted.Participants = len(doc.Participants)
			resp.Deleted.Gifts = len(doc.Gifts)

			*doc = *newDocument()

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		logf(cfg, "SANTA: Nuclear reset by %s (deleted %d participants, %d gifts)",
			realIP(r),
			resp.Deleted.Participants,
			resp.Deleted.Gifts,
		)

		resp.Success = true
		resp.Message = "All data has been permanently deleted"

		writeJSON(cfg, w, http.StatusOK, resp)
	}
}

func registerGameRoutes(cfg *Config, store Store, hub *Hub, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/game/current-turn", serveCurrentTurn(cfg, store))
	mux.PUT(cfg.prefix+"/api/game/start", notifyAfter(hub, "game", serveStartGame(cfg, store)))
	mux.PUT(cfg.prefix+"/api/game/next-turn", notifyAfter(hub, "game", serveNextTurn(cfg, store)))
	mux.PUT(cfg.prefix+"/api/game/previous-turn", notifyAfter(hub, "game", servePreviousTurn(cfg, store)))
	mux.POST(cfg.prefix+"/api/nuclear/reset", notifyAfter(hub, "all", serveNuclearReset(cfg, store)))
}
