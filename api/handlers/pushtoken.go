package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sahilattar8786/khidmah-mvp/api"
	"github.com/Sahilattar8786/khidmah-mvp/config"
	"github.com/Sahilattar8786/khidmah-mvp/databases"
)

// PushToken exported for testing purposes
type PushToken struct {
	DB databases.PushTokenDatabase
}

// RegisterTokenHandler stores a device push token for a user. Re-registering
// the same token refreshes it rather than duplicating it.
func (p PushToken) RegisterTokenHandler(w http.ResponseWriter, r *http.Request) {
	type registerRequest struct {
		UserID   string `json:"userId"`
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if req.UserID == "" || req.Token == "" {
		http.Error(w, `{"success": false, "message": "userId and token are required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())
	_, err := p.DB.UpdateOne(ctx,
		bson.M{"userId": req.UserID, "token": req.Token},
		bson.M{
			"$set":         bson.M{"platform": req.Platform, "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		config.ErrorStatus("failed to register push token", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}

// RemoveTokenHandler deletes a device push token, typically on logout
func (p PushToken) RemoveTokenHandler(w http.ResponseWriter, r *http.Request) {
	type removeRequest struct {
		UserID string `json:"userId"`
		Token  string `json:"token"`
	}
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"userId": req.UserID}
	if req.Token != "" {
		filter["token"] = req.Token
	}
	if _, err := p.DB.DeleteMany(ctx, filter); err != nil {
		config.ErrorStatus("failed to remove push token", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true}`))
}
