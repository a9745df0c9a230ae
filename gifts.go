package main

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

type addGiftRequest struct {
	Name    *string `json:"name"`
	OwnerID *int    `json:"owner_id"`
}

type renameGiftRequest struct {
	Name *string `json:"name"`
}

type stealGiftRequest struct {
	NewOwnerID *int `json:"new_owner_id"`
}

type giftListResponse struct {
	Gifts []Gift `json:"gifts"`
}

type giftResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Gift    Gift   `json:"gift"`
}

func serveAddGift(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req addGiftRequest
		if err := parseJSONBody(r, &req); err != nil {
			writeError(cfg, w, r, err)

			return
		}

		if req.Name == nil {
			writeError(cfg, w, r, validationError("MISSING_FIELDS", "Missing required fields: name"))

			return
		}

		name, err := validateGiftName(*req.Name)
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		if req.OwnerID != nil {
			if err := validateParticipantID(*req.OwnerID); err != nil {
				writeError(cfg, w, r, err)

				return
			}
		}

		var created Gift

		_, err = store.Update(func(doc *Document) error {
			created = newGift(uuid.NewString(), name, req.OwnerID)
			doc.Gifts = append(doc.Gifts, created)

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		logf(cfg, "SANTA: Added gift %s (%s) from %s", created.ID, created.Name, realIP(r))

		writeJSON(cfg, w, http.StatusCreated, created)
	}
}

func serveListGifts(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		doc, err := store.Read()
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		writeJSON(cfg, w, http.StatusOK, giftListResponse{Gifts: doc.Gifts})
	}
}

// serveStealGift hands the gift to the requested new owner, bumping the
// steal counter and locking the gift on its third steal. A locked gift
// refuses the steal outright, leaving every field untouched. Nothing
// stops a participant from stealing a gift they already hold; clients
// are expected to grey that action out.
func serveStealGift(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		giftID := p.ByName("giftid")

		var req stealGiftRequest
		if err := parseJSONBody(r, &req); err != nil {
			writeError(cfg, w, r, err)

			return
		}

		if req.NewOwnerID == nil {
			writeError(cfg, w, r, validationError("MISSING_FIELDS", "Missing required fields: new_owner_id"))

			return
		}

		if err := validateParticipantID(*req.NewOwnerID); err != nil {
			writeError(cfg, w, r, err)

			return
		}

		var stolen Gift

		_, err := store.Update(func(doc *Document) error {
			gift := doc.findGift(giftID)
			if gift == nil {
				return notFoundError("GIFT_NOT_FOUND", "Gift with ID '%s' not found", giftID)
			}

			if !gift.steal(*req.NewOwnerID) {
				return conflictError("GIFT_LOCKED", "Gift cannot be stolen - it is locked")
			}

			stolen = *gift

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		message := "Gift stolen successfully"
		if stolen.IsLocked {
			message += " - Gift is now locked after 3 steals"
		}

		logf(cfg, "SANTA: Gift %s stolen by participant %d (steals: %d, locked: %t)",
			stolen.ID,
			*req.NewOwnerID,
			stolen.StealCount,
			stolen.IsLocked,
		)

		writeJSON(cfg, w, http.StatusOK, giftResponse{
			Success: true,
			Message: message,
			Gift:    stolen,
		})
	}
}

// serveRenameGift updates the name and nothing else; locked gifts can
// still be renamed.
func serveRenameGift(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		giftID := p.ByName("giftid")

		var req renameGiftRequest
		if err := parseJSONBody(r, &req); err != nil {
			writeError(cfg, w, r, err)

			return
		}

		if req.Name == nil {
			writeError(cfg, w, r, validationError("MISSING_FIELDS", "Missing required fields: name"))

			return
		}

		name, err := validateGiftName(*req.Name)
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		var renamed Gift

		_, err = store.Update(func(doc *Document) error {
			gift := doc.findGift(giftID)
			if gift == nil {
				return notFoundError("GIFT_NOT_FOUND", "Gift with ID '%s' not found", giftID)
			}

			gift.Name = name
			renamed = *gift

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		logf(cfg, "SANTA: Gift %s renamed to %s", renamed.ID, renamed.Name)

		writeJSON(cfg, w, http.StatusOK, giftResponse{
			Success: true,
			Message: "Gift name updated successfully",
			Gift:    renamed,
		})
	}
}

// serveResetGiftSteals is the admin override: counter and lock go back
// to zero, while the steal history and the current owner stay put.
func serveResetGiftSteals(cfg *Config, store Store) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		giftID := p.ByName("giftid")

		var (
			reset    Gift
			wasReset bool
		)

		_, err := store.Update(func(doc *Document) error {
			gift := doc.findGift(giftID)
			if gift == nil {
				return notFoundError("GIFT_NOT_FOUND", "Gift with ID '%s' not found", giftID)
			}

			wasReset = gift.resetSteals()
			reset = *gift

			return nil
		})
		if err != nil {
			writeError(cfg, w, r, err)

			return
		}

		message := "Gift already has 0 steals and is unlocked"
		if wasReset {
			message = "Gift steal count reset to 0 and unlocked - can be stolen again!"
		}

		logf(cfg, "SANTA: Gift %s steal count reset (changed: %t)", reset.ID, wasReset)

		writeJSON(cfg, w, http.StatusOK, giftResponse{
			Success: true,
			Message: message,
			Gift:    reset,
		})
	}
}

func registerGiftRoutes(cfg *Config, store Store, hub *Hub, mux *httprouter.Router) {
	mux.POST(cfg.prefix+"/api/gifts", notifyAfter(hub, "gifts", serveAddGift(cfg, store)))
	mux.GET(cfg.prefix+"/api/gifts", serveListGifts(cfg, store))
	mux.PUT(cfg.prefix+"/api/gifts/:giftid/steal", notifyAfter(hub, "gifts", serveStealGift(cfg, store)))
	mux.PUT(cfg.prefix+"/api/gifts/:giftid/name", notifyAfter(hub, "gifts", serveRenameGift(cfg, store)))
	mux.PUT(cfg.prefix+"/api/gifts/:giftid/reset-steals", notifyAfter(hub, "gifts", serveResetGiftSteals(cfg, store)))
}
