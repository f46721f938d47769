package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Sahilattar8786/khidmah-mvp/api"
	"github.com/Sahilattar8786/khidmah-mvp/config"
	"github.com/Sahilattar8786/khidmah-mvp/directory"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/roles"
	"github.com/Sahilattar8786/khidmah-mvp/routing"
)

// Route exported for testing purposes
type Route struct {
	Roles *roles.Store
	Dir   *directory.Directory
}

// RouteHandler resolves where the client should navigate given who it is
// and where it currently sits. An empty target means stay put.
func (rt Route) RouteHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("userId")
	segment := q.Get("segment")
	signedIn := q.Get("signedIn") == "true"

	state := routing.State{
		SignedIn: signedIn,
		Role:     models.RoleUser,
		Segment:  routing.Segment(segment),
	}

	if signedIn {
		if userID == "" {
			config.ErrorStatus("failed to resolve route", http.StatusBadRequest, w, errors.New("userId is required when signed in"))
			return
		}

		ctx, cancel := api.WithQueryTimeout(r.Context())
		defer cancel()

		state.Role = rt.Roles.GetRole(ctx, userID)
		if state.Role == models.RoleAalim {
			registered, err := rt.Dir.IsRegistered(ctx, userID)
			if err != nil {
				config.ErrorStatus("failed to check aalim registration", http.StatusInternalServerError, w, err)
				return
			}
			state.Registered = registered
		}
	}

	b, err := json.Marshal(map[string]string{"target": routing.Resolve(state)})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
