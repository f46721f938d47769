package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shaj13/go-guardian/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Sahilattar8786/khidmah-mvp/api/handlers"
	"github.com/Sahilattar8786/khidmah-mvp/databases/mocks"
	"github.com/Sahilattar8786/khidmah-mvp/directory"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/roles"
)

func newUserHandler(userDB *mocks.UserDatabase, pvDB *mocks.PendingVerificationDatabase, aalimDB *mocks.AalimDatabase) handlers.User {
	return handlers.User{
		DB:    userDB,
		PVDB:  pvDB,
		Roles: roles.New(userDB, store.NewFIFO(context.Background(), time.Minute)),
		Dir:   directory.New(aalimDB, false),
	}
}

func TestUser_SignupHandlerExistingEmail(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("CountDocuments", mock.Anything, bson.M{"email": "taken@example.com"}).
		Return(int64(1), nil)

	u := newUserHandler(userDB, &mocks.PendingVerificationDatabase{}, &mocks.AalimDatabase{})

	req, _ := http.NewRequest("POST", "/api/v1/user/signup",
		bytes.NewBufferString(`{"email": "Taken@Example.com", "password": "secret"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.SignupHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Email already exists")
}

func TestUser_SignupHandlerStagesVerification(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	pvDB := &mocks.PendingVerificationDatabase{}
	pvDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.PendingVerification")).
		Return(&mocks.InsertOneResultHelper{}, nil)

	u := newUserHandler(userDB, pvDB, &mocks.AalimDatabase{})

	req, _ := http.NewRequest("POST", "/api/v1/user/signup",
		bytes.NewBufferString(`{"email": "new@example.com", "name": "New User", "password": "secret"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.SignupHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "needs_verification")

	staged := pvDB.Calls[0].Arguments.Get(1).(models.PendingVerification)
	assert.Equal(t, "new@example.com", staged.Email)
	assert.Equal(t, "New User", staged.Name)
	assert.Len(t, staged.Code, 6)
	assert.NotEqual(t, "secret", staged.Password) // stored hashed
}

func TestUser_VerifyHandlerWrongCode(t *testing.T) {
	pending := &models.PendingVerification{
		ID:    primitive.NewObjectID(),
		Email: "new@example.com",
		Code:  "123456",
	}
	pvDB := &mocks.PendingVerificationDatabase{}
	pvDB.On("FindOne", mock.Anything, mock.Anything).Return(pending, nil)
	pvDB.On("UpdateOne", mock.Anything, mock.Anything, bson.M{"$inc": bson.M{"attempts": 1}}).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	u := newUserHandler(&mocks.UserDatabase{}, pvDB, &mocks.AalimDatabase{})

	req, _ := http.NewRequest("POST", "/api/v1/user/verify",
		bytes.NewBufferString(`{"email": "new@example.com", "code": "000000"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.VerifyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid code")
	pvDB.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, bson.M{"$inc": bson.M{"attempts": 1}})
}

func TestUser_VerifyHandlerTooManyAttempts(t *testing.T) {
	pending := &models.PendingVerification{
		ID:       primitive.NewObjectID(),
		Email:    "new@example.com",
		Code:     "123456",
		Attempts: 5,
	}
	pvDB := &mocks.PendingVerificationDatabase{}
	pvDB.On("FindOne", mock.Anything, mock.Anything).Return(pending, nil)
	pvDB.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)

	u := newUserHandler(&mocks.UserDatabase{}, pvDB, &mocks.AalimDatabase{})

	req, _ := http.NewRequest("POST", "/api/v1/user/verify",
		bytes.NewBufferString(`{"email": "new@example.com", "code": "123456"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.VerifyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Too many attempts")
	pvDB.AssertCalled(t, "DeleteOne", mock.Anything, mock.Anything)
}

func TestUser_VerifyHandlerCreatesUser(t *testing.T) {
	pending := &models.PendingVerification{
		ID:       primitive.NewObjectID(),
		Email:    "new@example.com",
		Code:     "123456",
		Name:     "New User",
		Password: "$2a$10$hashhashhashhashhashha",
	}
	pvDB := &mocks.PendingVerificationDatabase{}
	pvDB.On("FindOne", mock.Anything, mock.Anything).Return(pending, nil)
	pvDB.On("DeleteOne", mock.Anything, mock.Anything).Return(int64(1), nil)

	userDB := &mocks.UserDatabase{}
	userDB.On("InsertOne", mock.Anything, mock.AnythingOfType("models.User")).
		Return(&mocks.InsertOneResultHelper{}, nil)
	userDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	u := newUserHandler(userDB, pvDB, &mocks.AalimDatabase{})

	req, _ := http.NewRequest("POST", "/api/v1/user/verify",
		bytes.NewBufferString(`{"email": "new@example.com", "code": "123456"}`))
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.VerifyHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "complete")

	created := userDB.Calls[0].Arguments.Get(1).(models.User)
	assert.Equal(t, "new@example.com", created.Email)
	assert.Equal(t, "New User", created.Name)
	assert.Equal(t, models.RoleUser, created.Role)
}

func TestUser_RoleHandlerDefaultsToUser(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	single := &mocks.SingleResultHelper{}
	single.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	userDB.On("FindOne", mock.Anything, mock.Anything).Return(single)

	u := newUserHandler(userDB, &mocks.PendingVerificationDatabase{}, &mocks.AalimDatabase{})

	req, _ := http.NewRequest("GET", "/api/v1/user/unknown/role", nil)
	req = mux.SetURLVars(req, map[string]string{"userId": "unknown"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RoleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"userId": "unknown", "role": "user"}`, rr.Body.String())
}

func TestUser_SetRoleHandlerAalimRegistersDirectory(t *testing.T) {
	userDB := &mocks.UserDatabase{}
	userDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	aalimDB := &mocks.AalimDatabase{}
	aalimDB.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)

	u := newUserHandler(userDB, &mocks.PendingVerificationDatabase{}, aalimDB)

	req, _ := http.NewRequest("PUT", "/api/v1/user/identity-1/role",
		bytes.NewBufferString(`{"role": "aalim", "email": "imam@example.com", "name": "Imam Yusuf"}`))
	req = mux.SetURLVars(req, map[string]string{"userId": "identity-1"})
	rr := httptest.NewRecorder()
	http.HandlerFunc(u.SetRoleHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	aalimDB.AssertCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
