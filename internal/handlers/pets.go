package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calebwray/shapepet/internal/session"
	"github.com/calebwray/shapepet/pkg/pet"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// PetResponse wraps the pet state returned by every pet endpoint.
type PetResponse struct {
	ID    string     `json:"id"`
	State *pet.State `json:"state"`
}

// PetHandler handles the pet lifecycle and all pet subresources.
//
// Routes:
//
//	POST   /v1/pets              - Create a new pet
//	GET    /v1/pets/{id}         - Read pet state
//	DELETE /v1/pets/{id}         - Delete a pet
//	POST   /v1/pets/{id}/tick    - Advance the simulation
//	POST   /v1/pets/{id}/actions - Care actions (play, feed, sleep, heal, ...)
//	POST   /v1/pets/{id}/train   - Train an ability
//	POST   /v1/pets/{id}/battle  - Battle moves (start, attack, defend, flee)
//	POST   /v1/pets/{id}/items   - Shop operations (buy, use)
type PetHandler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewPetHandler(sessions *session.Manager, logger *slog.Logger) *PetHandler {
	return &PetHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *PetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/pets"), "/")

	// POST /v1/pets
	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a pet.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	petID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid pet ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid pet ID format")
		return
	}

	engine, err := h.sessions.Get(r.Context(), petID)
	if err != nil {
		h.logger.Error("Failed to look up pet", "pet_id", petID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to look up pet")
		return
	}
	if engine == nil {
		h.writeError(w, http.StatusNotFound, "Pet not found")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.writePet(w, http.StatusOK, engine)
		case http.MethodDelete:
			h.handleDelete(w, r, petID)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if len(parts) != 2 || r.Method != http.MethodPost {
		h.writeError(w, http.StatusNotFound, "Unknown pet resource")
		return
	}

	switch parts[1] {
	case "tick":
		h.handleTick(w, r, engine)
	case "actions":
		h.handleAction(w, r, engine)
	case "train":
		h.handleTrain(w, r, engine)
	case "battle":
		h.handleBattle(w, r, engine)
	case "items":
		h.handleItems(w, r, engine)
	default:
		h.writeError(w, http.StatusNotFound, "Unknown pet resource")
	}
}

func (h *PetHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	engine, err := h.sessions.Create(r.Context())
	if err != nil {
		h.logger.Error("Failed to create pet", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create pet")
		return
	}
	h.writePet(w, http.StatusCreated, engine)
}

func (h *PetHandler) handleDelete(w http.ResponseWriter, r *http.Request, petID uuid.UUID) {
	if err := h.sessions.Delete(r.Context(), petID); err != nil {
		h.logger.Error("Failed to delete pet", "pet_id", petID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete pet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TickRequest advances the simulation clock for one pet.
type TickRequest struct {
	Activity pet.Activity `json:"activity"`
	Seconds  float64      `json:"seconds"`
}

func (h *PetHandler) handleTick(w http.ResponseWriter, r *http.Request, engine *pet.Engine) {
	var req TickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Activity == "" {
		req.Activity = pet.ActivityIdle
	}
	if req.Seconds <= 0 {
		h.writeError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}

	engine.Tick(req.Activity, req.Seconds)
	h.writePet(w, http.StatusOK, engine)
}

// ActionRequest names a care action to perform.
type ActionRequest struct {
	Action string `json:"action"`
}

func (h *PetHandler) handleAction(w http.ResponseWriter, r *http.Request, engine *pet.Engine) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var res pet.Result
	switch req.Action {
	case "play":
		res = engine.Play()
	case "feed":
		res = engine.Feed()
	case "sleep":
		res = engine.Sleep()
	case "heal":
		res = engine.Heal()
	case "freeze":
		engine.Freeze()
		res = pet.Result{OK: true}
	case "unfreeze":
		engine.Unfreeze()
		res = pet.Result{OK: true}
	case "reset":
		engine.Reset()
		res = pet.Result{OK: true}
	default:
		h.writeError(w, http.StatusBadRequest, "Unknown action. Supported: play, feed, sleep, heal, freeze, unfreeze, reset")
		return
	}

	h.writeResult(w, engine, res)
}

// TrainRequest names the ability to train.
type TrainRequest struct {
	Ability pet.Ability `json:"ability"`
}

func (h *PetHandler) handleTrain(w http.ResponseWriter, r *http.Request, engine *pet.Engine) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res := engine.TrainAbility(req.Ability)
	if !res.OK && res.Reason == pet.ReasonUnknown {
		h.writeError(w, http.StatusBadRequest, "Unknown ability. Supported: strength, speed, defense, intelligence")
		return
	}
	h.writeResult(w, engine, res)
}

// BattleRequest names a battle move.
type BattleRequest struct {
	Action string `json:"action"`
}

// BattleResponse reports a battle move alongside the refreshed state.
type BattleResponse struct {
	ID     string            `json:"id"`
	Attack *pet.AttackResult `json:"attack,omitempty"`
	Defend *pet.DefendResult `json:"defend,omitempty"`
	Fled   *bool             `json:"fled,omitempty"`
	State  *pet.State        `json:"state"`
}

func (h *PetHandler) handleBattle(w http.ResponseWriter, r *http.Request, engine *pet.Engine) {
	var req BattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp := BattleResponse{ID: engine.ID().String()}
	switch req.Action {
	case "start":
		if !engine.StartBattle() {
			h.writeError(w, http.StatusConflict, "Cannot start a battle right now")
			return
		}
	case "attack":
		result := engine.Attack()
		if !result.Success {
			h.writeError(w, http.StatusConflict, "Not in a battle")
			return
		}
		resp.Attack = &result
	case "defend":
		result := engine.Defend()
		if !result.Success {
			h.writeError(w, http.StatusConflict, "Not in a battle")
			return
		}
		resp.Defend = &result
	case "flee":
		if !engine.State().InBattle {
			h.writeError(w, http.StatusConflict, "Not in a battle")
			return
		}
		fled := engine.Flee()
		resp.Fled = &fled
	default:
		h.writeError(w, http.StatusBadRequest, "Unknown battle action. Supported: start, attack, defend, flee")
		return
	}

	resp.State = engine.State()
	h.writeJSON(w, http.StatusOK, resp)
}

// ItemRequest is a shop operation: buy an item or use an owned one.
type ItemRequest struct {
	Op   string     `json:"op"`
	Item pet.ItemID `json:"item"`
}

func (h *PetHandler) handleItems(w http.ResponseWriter, r *http.Request, engine *pet.Engine) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var res pet.Result
	switch req.Op {
	case "buy":
		res = engine.BuyItem(req.Item)
	case "use":
		res = engine.UseItem(req.Item)
	default:
		h.writeError(w, http.StatusBadRequest, "Unknown item op. Supported: buy, use")
		return
	}

	if !res.OK && res.Reason == pet.ReasonUnknown {
		h.writeError(w, http.StatusBadRequest, "Unknown item")
		return
	}
	h.writeResult(w, engine, res)
}

// writeResult maps an engine result to a response: refusals are 409
// with the machine-readable reason, success returns the fresh state.
func (h *PetHandler) writeResult(w http.ResponseWriter, engine *pet.Engine, res pet.Result) {
	if !res.OK {
		h.writeError(w, http.StatusConflict, res.Reason)
		return
	}
	h.writePet(w, http.StatusOK, engine)
}

func (h *PetHandler) writePet(w http.ResponseWriter, status int, engine *pet.Engine) {
	h.writeJSON(w, status, PetResponse{
		ID:    engine.ID().String(),
		State: engine.State(),
	})
}

func (h *PetHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *PetHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
