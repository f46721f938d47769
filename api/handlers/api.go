package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Sahilattar8786/khidmah-mvp/api"
	"github.com/Sahilattar8786/khidmah-mvp/api/scheduler"
	"github.com/Sahilattar8786/khidmah-mvp/chat"
	"github.com/Sahilattar8786/khidmah-mvp/config"
	"github.com/Sahilattar8786/khidmah-mvp/databases"
	"github.com/Sahilattar8786/khidmah-mvp/directory"
	"github.com/Sahilattar8786/khidmah-mvp/models"
	"github.com/Sahilattar8786/khidmah-mvp/realtime"
	"github.com/Sahilattar8786/khidmah-mvp/roles"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Broker    *realtime.Broker
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	userDB := databases.NewUserDatabase(a.dbHelper)
	aalimDB := databases.NewAalimDatabase(a.dbHelper)
	chatDB := databases.NewChatDatabase(a.dbHelper)
	messageDB := databases.NewMessageDatabase(a.dbHelper)
	pushTokenDB := databases.NewPushTokenDatabase(a.dbHelper)
	pendingDB := databases.NewPendingVerificationDatabase(a.dbHelper)

	if a.Broker == nil {
		a.Broker = realtime.NewBroker()
	}
	roleStore := roles.New(userDB, api.SessionCache())
	dir := directory.New(aalimDB, a.Config.StrictAvailability)
	registry := chat.NewRegistry(chatDB, messageDB, dir, a.Broker, a.Config.OrderedQueries)
	log := chat.NewLog(messageDB, chatDB, a.Broker)
	notifier := &ExpoNotifier{Tokens: pushTokenDB}

	u := User{DB: userDB, PVDB: pendingDB, Roles: roleStore, Dir: dir}
	al := Aalim{Dir: dir}
	c := Chat{Registry: registry, Log: log}
	rt := Route{Roles: roleStore, Dir: dir}
	pt := PushToken{DB: pushTokenDB}
	ws := &realtime.WSHandler{Chats: registry, Messages: log, Notifier: notifier}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.HandleFunc("/ws", ws.Serve)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/signup", http.HandlerFunc(u.SignupHandler)).Methods("POST")
	apiCreate.Handle("/user/verify", http.HandlerFunc(u.VerifyHandler)).Methods("POST")
	apiCreate.Handle("/user/{userId}/role", api.Middleware(http.HandlerFunc(u.RoleHandler))).Methods("GET")
	apiCreate.Handle("/user/{userId}/role", api.Middleware(http.HandlerFunc(u.SetRoleHandler))).Methods("PUT")
	apiCreate.Handle("/user/{userId}/chats", api.Middleware(http.HandlerFunc(c.UserChatsHandler))).Methods("GET")

	apiCreate.Handle("/aalim/register", api.Middleware(http.HandlerFunc(al.RegisterHandler))).Methods("POST")
	apiCreate.Handle("/aalims/available", api.Middleware(http.HandlerFunc(al.AvailableHandler))).Methods("GET")
	apiCreate.Handle("/aalim/{aalimId}/availability", api.Middleware(http.HandlerFunc(al.SetAvailabilityHandler))).Methods("PATCH")
	apiCreate.Handle("/aalim/{aalimId}/chats", api.Middleware(http.HandlerFunc(c.AalimChatsHandler))).Methods("GET")

	apiCreate.Handle("/route", api.Middleware(http.HandlerFunc(rt.RouteHandler))).Methods("GET")

	apiCreate.Handle("/chat", api.Middleware(http.HandlerFunc(c.CreateChatHandler))).Methods("POST")
	apiCreate.Handle("/chat/{chatId}", api.Middleware(http.HandlerFunc(c.ChatByIDHandler))).Methods("GET")
	apiCreate.Handle("/chat/{chatId}", api.Middleware(http.HandlerFunc(c.DeleteChatHandler))).Methods("DELETE")
	apiCreate.Handle("/chat/{chatId}/messages", api.Middleware(http.HandlerFunc(c.MessagesHandler))).Methods("GET")
	apiCreate.Handle("/chat/{chatId}/messages", api.Middleware(http.HandlerFunc(c.SendMessageHandler))).Methods("POST")

	apiCreate.Handle("/push-token", api.Middleware(http.HandlerFunc(pt.RegisterTokenHandler))).Methods("POST")
	apiCreate.Handle("/push-token", api.Middleware(http.HandlerFunc(pt.RemoveTokenHandler))).Methods("DELETE")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("khidmah-api has connected to the database")

	a.Broker = realtime.NewBroker()

	// background sweeps: expired verification codes, stale advisors
	a.Scheduler = scheduler.New(
		databases.NewPendingVerificationDatabase(a.dbHelper),
		databases.NewAalimDatabase(a.dbHelper),
		a.Config.StrictAvailability,
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	w.Write(b)
}
