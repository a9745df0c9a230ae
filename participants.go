package main

import (
	"net/http"
	"sort"
	"time"

	"github.com/julienschmidt/httprouter"
)

type registerParticipantRequest struct {
	Name *string `json:"name"`
}

type participantListResponse struct {
	Participants []Participant `json:"participants"`
}

type participantCountResponse struct {
	Count           int `json:"count"`
	MaxParticipants int `json:"max_participants"`
}

// serveRegisterParticipant assigns the lowest unused slot number in
// [1, maxParticipants] to the given name. The whole check-and-assign
// happens inside one store update, so two concurrent registrations can
// never receive the same number.
func serveRegisterParticipant(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req registerParticipantRequest
		if err := parseJSONBody(r, &req); err != nil {
			writeError(cfg, w, r, err)

			return
		}

		if req.Name == nil {
			writeError(cfg, w, r, validationError("MISSING_FIELDS", "Missing required fields: name"))

			return
		}

		name, err := validateParticipantName(*req.Name)
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		var created Participant

		_, err = store.Update(func(doc *Document) error {
			if len(doc.Participants) >= maxParticipants {
				return conflictError("CAPACITY_EXCEEDED", "Maximum number of participants (%d) reached", maxParticipants)
			}

			id := doc.lowestFreeParticipantID()
			if id == 0 {
				return conflictError("CAPACITY_EXCEEDED", "No available participant numbers")
			}

			created = Participant{
				ID:                    id,
				Name:                  name,
				RegistrationTimestamp: time.Now().Format(time.RFC3339Nano),
			}
			doc.Participants = append(doc.Participants, created)

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		logf(cfg, "SANTA: Registered participant %d (%s) from %s", created.ID, created.Name, realIP(r))

		writeJSON(cfg, w, http.StatusCreated, created)
	}
}

func serveListParticipants(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		doc, err := store.Read()
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		participants := doc.Participants
		sort.Slice(participants, func(i, j int) bool {
			return participants[i].ID < participants[j].ID
		})

		writeJSON(cfg, w, http.StatusOK, participantListResponse{Participants: participants})
	}
}

func serveParticipantCount(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		doc, err := store.Read()
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		writeJSON(cfg, w, http.StatusOK, participantCountResponse{
			Count:           len(doc.Participants),
			MaxParticipants: maxParticipants,
		})
	}
}

func registerParticipantRoutes(cfg *Config, store Store, hub *Hub, mux *httprouter.Router) {
	mux.POST(cfg.prefix+"/api/participants", notifyAfter(hub, "participants", serveRegisterParticipant(cfg, store)))
	mux.GET(cfg.prefix+"/api/participants", serveListParticipants(cfg, store))
	mux.GET(cfg.prefix+"/api/participants/count", serveParticipantCount(cfg, store))
}
