package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Sahilattar8786/khidmah-mvp/api"
	"github.com/Sahilattar8786/khidmah-mvp/config"
	"github.com/Sahilattar8786/khidmah-mvp/directory"
)

// Aalim exported for testing purposes
type Aalim struct {
	Dir *directory.Directory
}

// RegisterHandler upserts the caller into the advisor directory. Safe to
// call on every advisor screen load.
func (a Aalim) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		AalimID string `json:"aalimId"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Dir.Register(ctx, requestBody.AalimID, requestBody.Email, requestBody.Name); err != nil {
		config.ErrorStatus("failed to register aalim", http.StatusBadRequest, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

// AvailableHandler returns the assignable advisors
func (a Aalim) AvailableHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	aalims, err := a.Dir.ListAvailable(ctx)
	if err != nil {
		config.ErrorStatus("failed to list available aalims", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(aalims)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SetAvailabilityHandler updates the stored availability flag
func (a Aalim) SetAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	aalimID := mux.Vars(r)["aalimId"]

	var requestBody struct {
		IsAvailable bool `json:"isAvailable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := a.Dir.SetAvailability(ctx, aalimID, requestBody.IsAvailable); err != nil {
		config.ErrorStatus("failed to update availability", http.StatusNotFound, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}
