package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/calebwray/shapepet/pkg/pet"
)

// PetResponse matches the API's pet payload.
type PetResponse struct {
	ID    string     `json:"id"`
	State *pet.State `json:"state"`
}

// BattleMove matches the API's battle move payload.
type BattleMove struct {
	ID     string            `json:"id"`
	Attack *pet.AttackResult `json:"attack,omitempty"`
	Defend *pet.DefendResult `json:"defend,omitempty"`
	Fled   *bool             `json:"fled,omitempty"`
	State  *pet.State        `json:"state"`
}

// CatalogResponse matches the API's shop catalog payload.
type CatalogResponse struct {
	Items []pet.ItemDef `json:"items"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func createPet(client *http.Client, baseURL string) (*PetResponse, error) {
	resp, err := client.Post(baseURL+"/v1/pets", "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp.StatusCode, body, "failed to create pet")
	}

	var created PetResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to parse pet response: %w", err)
	}
	return &created, nil
}

func getPet(client *http.Client, baseURL string, petID uuid.UUID) (*PetResponse, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/pets/%s", baseURL, petID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to get pet")
	}

	var petResp PetResponse
	if err := json.Unmarshal(body, &petResp); err != nil {
		return nil, fmt.Errorf("failed to parse pet response: %w", err)
	}
	return &petResp, nil
}

func deletePet(client *http.Client, baseURL string, petID uuid.UUID) error {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/v1/pets/%s", baseURL, petID), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body, "failed to delete pet")
	}
	return nil
}

// postAction performs one care action (play, feed, sleep, heal, freeze,
// unfreeze, reset) and returns the refreshed pet.
func postAction(client *http.Client, baseURL string, petID uuid.UUID, action string) (*PetResponse, error) {
	return postPetJSON(client, fmt.Sprintf("%s/v1/pets/%s/actions", baseURL, petID),
		map[string]string{"action": action})
}

func postTrain(client *http.Client, baseURL string, petID uuid.UUID, ability pet.Ability) (*PetResponse, error) {
	return postPetJSON(client, fmt.Sprintf("%s/v1/pets/%s/train", baseURL, petID),
		map[string]pet.Ability{"ability": ability})
}

func postItem(client *http.Client, baseURL string, petID uuid.UUID, op string, item pet.ItemID) (*PetResponse, error) {
	return postPetJSON(client, fmt.Sprintf("%s/v1/pets/%s/items", baseURL, petID),
		map[string]string{"op": op, "item": string(item)})
}

func postBattle(client *http.Client, baseURL string, petID uuid.UUID, action string) (*BattleMove, error) {
	jsonData, err := json.Marshal(map[string]string{"action": action})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/pets/%s/battle", baseURL, petID),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "battle move failed")
	}

	var move BattleMove
	if err := json.Unmarshal(body, &move); err != nil {
		return nil, fmt.Errorf("failed to parse battle response: %w", err)
	}
	return &move, nil
}

func getCatalog(client *http.Client, baseURL string) ([]pet.ItemDef, error) {
	resp, err := client.Get(baseURL + "/v1/items")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to load catalog")
	}

	var catalog CatalogResponse
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog response: %w", err)
	}
	return catalog.Items, nil
}

func postPetJSON(client *http.Client, url string, payload any) (*PetResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "request refused")
	}

	var petResp PetResponse
	if err := json.Unmarshal(body, &petResp); err != nil {
		return nil, fmt.Errorf("failed to parse pet response: %w", err)
	}
	return &petResp, nil
}

func apiError(status int, body []byte, context string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s: %s", context, errorResp.Error)
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// listenToSSE connects to the SSE endpoint and streams events to a channel
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, petID uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/pets/%s", baseURL, petID.String())

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent SSEEvent

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				eventChan <- currentEvent
				currentEvent = SSEEvent{}
			}
			continue
		}

		// Parse SSE format
		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataJSON := strings.TrimPrefix(line, "data: ")
			var data map[string]interface{}
			if err := json.Unmarshal([]byte(dataJSON), &data); err == nil {
				currentEvent.Data = data
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}

	return nil
}
