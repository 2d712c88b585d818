package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/mliu/whisper/internal/auth"
	"github.com/mliu/whisper/internal/chat"
	"github.com/mliu/whisper/internal/config"
	"github.com/mliu/whisper/internal/crypto"
	"github.com/mliu/whisper/internal/handlers"
	"github.com/mliu/whisper/internal/middleware"
	"github.com/mliu/whisper/internal/store/sqlstore"
	"github.com/mliu/whisper/internal/ws"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		logrus.Fatal(err)
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	auth.SetSecret(cfg.Auth.CookieSecret)

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open database")
	}

	cipher, err := crypto.New(cfg.Crypto.EncryptionKey)
	if err != nil {
		logrus.WithError(err).Fatal("invalid encryption key")
	}

	service := chat.NewService(store, cipher)

	hub := ws.NewHub(service)
	go hub.Run()

	authHandler := &handlers.AuthHandler{Store: store}
	chatHandler := &handlers.ChatHandler{Service: service, Hub: hub}

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	// Identity endpoints (no auth cookie yet)
	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/users/search", authHandler.SearchUsers).Methods("GET")

	// Messaging endpoints, all behind the auth middleware
	api := r.PathPrefix("/chatrooms").Subrouter()
	api.Use(middleware.AuthMiddleware)
	api.HandleFunc("", chatHandler.GetChatrooms).Methods("GET")
	api.HandleFunc("/start", chatHandler.StartChat).Methods("POST")
	api.HandleFunc("/groups", chatHandler.CreateGroup).Methods("POST")
	api.HandleFunc("/groups/{groupid}/members", chatHandler.AddGroupMember).Methods("POST")
	api.HandleFunc("/groups/{groupid}/messages", chatHandler.GetGroupMessages).Methods("GET")
	api.HandleFunc("/groups/{groupid}/messages", chatHandler.SendGroupMessage).Methods("POST")
	api.HandleFunc("/{otherUserId}/messages", chatHandler.GetConversation).Methods("GET")
	api.HandleFunc("/{otherUserId}/messages", chatHandler.SendDirectMessage).Methods("POST")

	// WebSocket notifications
	r.Handle("/ws", middleware.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.UserID(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ws.ServeWs(hub, w, r, userID)
	})))

	// Serve the browser client
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, cfg.Server.StaticDir+"/index.html")
	})
	r.PathPrefix("/").Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".css") || strings.HasSuffix(r.URL.Path, ".js") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		http.FileServer(http.Dir(cfg.Server.StaticDir)).ServeHTTP(w, r)
	}))

	logrus.WithField("addr", cfg.Server.Addr).Info("starting server")
	logrus.Fatal(http.ListenAndServe(cfg.Server.Addr, r))
}
