package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebwray/shapepet/internal/session"
	"github.com/calebwray/shapepet/internal/storage"
	"github.com/calebwray/shapepet/pkg/pet"
)

func newTestHandler(t *testing.T) (*PetHandler, *session.Manager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	sessions := session.NewManager(storage.NewMockStorage(), nil, logger)
	return NewPetHandler(sessions, logger), sessions
}

func createTestPet(t *testing.T, h *PetHandler) PetResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/pets", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp PetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPetHandler_Create(t *testing.T) {
	h, _ := newTestHandler(t)
	resp := createTestPet(t, h)

	assert.NotEmpty(t, resp.ID)
	require.NotNil(t, resp.State)
	assert.Equal(t, pet.FormCircle, resp.State.Form)
	assert.Equal(t, 50.0, resp.State.Hunger)
	assert.Equal(t, 70.0, resp.State.Happiness)
}

func TestPetHandler_Get(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	req := httptest.NewRequest(http.MethodGet, "/v1/pets/"+created.ID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp PetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, created.ID, resp.ID)
}

func TestPetHandler_GetNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pets/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPetHandler_InvalidID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pets/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Invalid pet ID format", resp.Error)
}

func TestPetHandler_Delete(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	req := httptest.NewRequest(http.MethodDelete, "/v1/pets/"+created.ID, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/pets/"+created.ID, nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPetHandler_Tick(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/tick", TickRequest{
		Activity: pet.ActivityIdle,
		Seconds:  10,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 10.0, resp.State.Age)
	assert.Greater(t, resp.State.Hunger, 50.0)
}

func TestPetHandler_TickValidation(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/tick", TickRequest{Seconds: -5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPetHandler_Actions(t *testing.T) {
	tests := []struct {
		name           string
		action         string
		expectedStatus int
		check          func(t *testing.T, s *pet.State)
	}{
		{
			name:           "feed",
			action:         "feed",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, s *pet.State) {
				assert.Equal(t, 30.0, s.Hunger)
			},
		},
		{
			name:           "play",
			action:         "play",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, s *pet.State) {
				assert.Equal(t, 82.0, s.Happiness)
			},
		},
		{
			name:           "sleep",
			action:         "sleep",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, s *pet.State) {
				assert.Equal(t, 100.0, s.Energy)
			},
		},
		{
			name:           "freeze",
			action:         "freeze",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, s *pet.State) {
				assert.True(t, s.Frozen)
			},
		},
		{
			name:           "unknown action",
			action:         "dance",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)
			created := createTestPet(t, h)

			w := postJSON(t, h, "/v1/pets/"+created.ID+"/actions", ActionRequest{Action: tt.action})
			require.Equal(t, tt.expectedStatus, w.Code)

			if tt.check != nil {
				var resp PetResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				tt.check(t, resp.State)
			}
		})
	}
}

func TestPetHandler_RefusalMapsToConflict(t *testing.T) {
	h, sessions := newTestHandler(t)
	created := createTestPet(t, h)

	id := uuid.MustParse(created.ID)
	engine, err := sessions.Get(context.Background(), id)
	require.NoError(t, err)
	engine.Die()

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/actions", ActionRequest{Action: "feed"})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, pet.ReasonDead, resp.Error)
}

func TestPetHandler_Train(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/train", TrainRequest{Ability: pet.AbilityStrength})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 20.0, resp.State.Training[pet.AbilityStrength].XP)
	assert.Equal(t, 65.0, resp.State.Energy)
}

func TestPetHandler_TrainUnknownAbility(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/train", TrainRequest{Ability: "charisma"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPetHandler_Battle(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/battle", BattleRequest{Action: "start"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp BattleResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.State)
	assert.True(t, resp.State.InBattle)
	require.NotNil(t, resp.State.CurrentEnemy)

	// A second start while fighting conflicts.
	w = postJSON(t, h, "/v1/pets/"+created.ID+"/battle", BattleRequest{Action: "start"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(t, h, "/v1/pets/"+created.ID+"/battle", BattleRequest{Action: "attack"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotNil(t, resp.Attack)
}

func TestPetHandler_BattleOutsideBattle(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	for _, action := range []string{"attack", "defend", "flee"} {
		w := postJSON(t, h, "/v1/pets/"+created.ID+"/battle", BattleRequest{Action: action})
		assert.Equal(t, http.StatusConflict, w.Code, "action %s", action)
	}
}

func TestPetHandler_Items(t *testing.T) {
	h, sessions := newTestHandler(t)
	created := createTestPet(t, h)

	// No coins yet: buying conflicts.
	w := postJSON(t, h, "/v1/pets/"+created.ID+"/items", ItemRequest{Op: "buy", Item: pet.ItemApple})
	require.Equal(t, http.StatusConflict, w.Code)

	// Grant coins through a battle victory, then buy and use.
	id := uuid.MustParse(created.ID)
	engine, err := sessions.Get(context.Background(), id)
	require.NoError(t, err)
	engine.StartBattle()
	won := true
	engine.EndBattle(&won)

	w = postJSON(t, h, "/v1/pets/"+created.ID+"/items", ItemRequest{Op: "buy", Item: pet.ItemApple})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 1, resp.State.Inventory[pet.ItemApple])

	w = postJSON(t, h, "/v1/pets/"+created.ID+"/items", ItemRequest{Op: "use", Item: pet.ItemApple})
	require.Equal(t, http.StatusOK, w.Code)

	// Decode into a fresh value: reusing resp would keep the apple key,
	// since decoding an empty object into a non-nil map removes nothing.
	var used PetResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&used))
	assert.Empty(t, used.State.Inventory)
}

func TestPetHandler_ItemsUnknownItem(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/items", ItemRequest{Op: "buy", Item: "philosopher_stone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPetHandler_UnknownSubresource(t *testing.T) {
	h, _ := newTestHandler(t)
	created := createTestPet(t, h)

	w := postJSON(t, h, "/v1/pets/"+created.ID+"/teleport", map[string]string{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPetHandler_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/pets", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
