package handlers

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sahilattar8786/khidmah-mvp/api"
	"github.com/Sahilattar8786/khidmah-mvp/config"
	"github.com/Sahilattar8786/khidmah-mvp/databases"
	"github.com/Sahilattar8786/khidmah-mvp/directory"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/roles"
)

const maxVerifyAttempts = 5

// User exported for testing purposes
type User struct {
	DB    databases.UserDatabase
	PVDB  databases.PendingVerificationDatabase
	Roles *roles.Store
	Dir   *directory.Directory
}

// SignupHandler stages a new account: the password is hashed, a verification
// code is stored and mailed, and the caller gets status "needs_verification".
// No user document exists until the code is confirmed.
func (u User) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))
	if requestBody.Email == "" || requestBody.Password == "" {
		http.Error(w, `{"success": false, "message": "Email and password are required"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	// reject emails that already belong to an account
	count, err := u.DB.CountDocuments(ctx, bson.M{"email": requestBody.Email})
	if err != nil {
		config.ErrorStatus("failed to check existing users", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		http.Error(w, `{"success": false, "message": "Email already exists"}`, http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(requestBody.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	// Generate a 6-digit code
	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))

	// the profile is staged alongside the code so verify can finish the account
	newPending := models.PendingVerification{
		ID:        primitive.NewObjectID(),
		Email:     requestBody.Email,
		Code:      code,
		Name:      strings.TrimSpace(requestBody.Name),
		Password:  string(hash),
		CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
	}
	if _, err := u.PVDB.InsertOne(ctx, newPending); err != nil {
		config.ErrorStatus("failed to create pending verification", http.StatusInternalServerError, w, err)
		return
	}

	// Send email with the code (non-blocking, in background)
	go sendVerificationEmail(requestBody.Email, code)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"success": true, "status": "needs_verification"}`))
}

func sendVerificationEmail(email, code string) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("panic in sendVerificationEmail", "email", email, "panic", r)
		}
	}()

	sendgridAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sendgridAPIKey == "" {
		zap.S().Errorw("SENDGRID_API_KEY not set, cannot send email", "email", email)
		return
	}

	from := mail.NewEmail("Khidmah", "no-reply@khidmah.app")
	subject := "Khidmah Email Verification Code"
	to := mail.NewEmail("", email)
	plainTextContent := "Verification code: " + code + ". This code will expire in 24 hours."
	htmlContent := fmt.Sprintf("<p>Your Khidmah verification code is <strong>%s</strong>. It expires in 24 hours.</p>", code)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)

	client := sendgrid.NewSendClient(sendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send verification email", "email", email, "error", err)
		return
	}
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		zap.S().Infow("verification email sent", "email", email, "statusCode", response.StatusCode)
	} else {
		zap.S().Warnw("verification email sent with non-2xx status", "email", email, "statusCode", response.StatusCode)
	}
}

// VerifyHandler confirms a pending verification code and creates the user
// document. Five wrong codes burn the pending record.
func (u User) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	var requestBody struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	requestBody.Email = strings.TrimSpace(strings.ToLower(requestBody.Email))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	pending, err := u.PVDB.FindOne(ctx, bson.M{"email": requestBody.Email})
	if err != nil {
		config.ErrorStatus("no pending verification for email", http.StatusNotFound, w, err)
		return
	}

	if pending.Attempts >= maxVerifyAttempts {
		u.PVDB.DeleteOne(ctx, bson.M{"_id": pending.ID})
		http.Error(w, `{"success": false, "message": "Too many attempts, sign up again"}`, http.StatusBadRequest)
		return
	}

	if pending.Code != requestBody.Code {
		u.PVDB.UpdateOne(ctx, bson.M{"_id": pending.ID}, bson.M{"$inc": bson.M{"attempts": 1}})
		http.Error(w, `{"success": false, "message": "Invalid code"}`, http.StatusBadRequest)
		return
	}

	now := primitive.NewDateTimeFromTime(time.Now())
	newUser := models.User{
		ID:        primitive.NewObjectID().Hex(),
		Email:     requestBody.Email,
		Name:      pending.Name,
		Password:  pending.Password,
		Role:      models.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := u.DB.InsertOne(ctx, newUser); err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}
	u.PVDB.DeleteOne(ctx, bson.M{"_id": pending.ID})

	// new signups default to the user role; select-role can change it later
	u.Roles.SetRole(ctx, newUser.ID, models.RoleUser)

	b, _ := json.Marshal(map[string]string{"status": "complete", "_id": newUser.ID})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// RoleHandler returns the resolved role for an identity. Resolution is
// bounded; an unknown or unresolvable identity reads as "user".
func (u User) RoleHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	role := u.Roles.GetRole(r.Context(), userID)

	b, err := json.Marshal(map[string]string{"userId": userID, "role": role})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SetRoleHandler assigns a role to an identity. Choosing the aalim role also
// registers the identity in the advisor directory so it becomes assignable.
func (u User) SetRoleHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var requestBody struct {
		Role  string `json:"role"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&requestBody); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if requestBody.Role != models.RoleUser && requestBody.Role != models.RoleAalim {
		http.Error(w, `{"success": false, "message": "role must be user or aalim"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	u.Roles.SetRole(ctx, userID, requestBody.Role)

	if requestBody.Role == models.RoleAalim {
		if err := u.Dir.Register(ctx, userID, requestBody.Email, requestBody.Name); err != nil {
			// the role stuck; directory registration is re-attempted by the
			// route controller's registration check
			zap.S().Errorw("failed to register aalim after role change", "userId", userID, "error", err)
		}
	}

	b, _ := json.Marshal(map[string]string{"userId": userID, "role": requestBody.Role})
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
