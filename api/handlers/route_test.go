package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shaj13/go-guardian/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sahilattar8786/khidmah-mvp/api/handlers"
	"github.com/Sahilattar8786/khidmah-mvp/databases/mocks"
	"github.com/Sahilattar8786/khidmah-mvp/directory"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/roles"
	"github.com/Sahilattar8786/khidmah-mvp/routing"
)

func TestRoute_SignedOutStaysInAuth(t *testing.T) {
	rt := handlers.Route{
		Roles: roles.New(&mocks.UserDatabase{}, store.NewFIFO(context.Background(), time.Minute)),
		Dir:   directory.New(&mocks.AalimDatabase{}, false),
	}

	req, _ := http.NewRequest("GET", "/api/v1/route?signedIn=false&segment=auth", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(rt.RouteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"target": ""}`, rr.Body.String())
}

func TestRoute_SignedOutKickedFromAppGroup(t *testing.T) {
	rt := handlers.Route{
		Roles: roles.New(&mocks.UserDatabase{}, store.NewFIFO(context.Background(), time.Minute)),
		Dir:   directory.New(&mocks.AalimDatabase{}, false),
	}

	req, _ := http.NewRequest("GET", "/api/v1/route?signedIn=false&segment=user", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(rt.RouteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"target": "`+routing.TargetLogin+`"}`, rr.Body.String())
}

func TestRoute_RegisteredAalimGoesHome(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Run(func(args mock.Arguments) {
		user := args.Get(0).(*models.User)
		user.Role = models.RoleAalim
	}).Return(nil)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.Aalim{ID: "aalim-1"}, nil)

	rt := handlers.Route{
		Roles: roles.New(userDB, store.NewFIFO(context.Background(), time.Minute)),
		Dir:   directory.New(aalimDB, false),
	}

	req, _ := http.NewRequest("GET", "/api/v1/route?signedIn=true&userId=aalim-1&segment=user", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(rt.RouteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"target": "`+routing.TargetAalimHome+`"}`, rr.Body.String())
}

func TestRoute_UnregisteredAalimSelectsRole(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Run(func(args mock.Arguments) {
		user := args.Get(0).(*models.User)
		user.Role = models.RoleAalim
	}).Return(nil)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	rt := handlers.Route{
		Roles: roles.New(userDB, store.NewFIFO(context.Background(), time.Minute)),
		Dir:   directory.New(aalimDB, false),
	}

	req, _ := http.NewRequest("GET", "/api/v1/route?signedIn=true&userId=aalim-1&segment=aalim", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(rt.RouteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"target": "`+routing.TargetSelectRole+`"}`, rr.Body.String())
}

func TestRoute_UserAlreadyInPlaceStaysPut(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	rt := handlers.Route{
		Roles: roles.New(userDB, store.NewFIFO(context.Background(), time.Minute)),
		Dir:   directory.New(&mocks.AalimDatabase{}, false),
	}

	// the query segment must round-trip into the resolver unchanged
	req, _ := http.NewRequest("GET", "/api/v1/route?signedIn=true&userId=user-1&segment=user", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(rt.RouteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"target": ""}`, rr.Body.String())
}

func TestRoute_SignedInWithoutIdentity(t *testing.T) {
	rt := handlers.Route{
		Roles: roles.New(&mocks.UserDatabase{}, store.NewFIFO(context.Background(), time.Minute)),
		Dir:   directory.New(&mocks.AalimDatabase{}, false),
	}

	req, _ := http.NewRequest("GET", "/api/v1/route?signedIn=true", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(rt.RouteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
