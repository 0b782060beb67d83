package api

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/linkup-app/linkup-server/cmd/utils"
	"github.com/linkup-app/linkup-server/engine"
	"github.com/linkup-app/linkup-server/service/notifications"
	"github.com/linkup-app/linkup-server/service/post"
	"github.com/linkup-app/linkup-server/service/user"
	"github.com/linkup-app/linkup-server/service/ws"
	"gorm.io/gorm"
)

type APIServer struct {
	address string
	db      *gorm.DB
}

func NewApiServer(address string, db *gorm.DB) *APIServer {
	return &APIServer{
		address: address,
		db:      db,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	hub := ws.NewHub()
	go hub.Run()

	store := engine.NewGormStore(s.db)
	graph := engine.NewGraph(store, hub)
	interactions := engine.NewInteractions(store, hub)
	cascade := engine.NewCascade(store, utils.LocalMedia{})

	notificationHandler := notification.NewHandler(s.db)
	notificationHandler.RegisterRoutes(subrouter)

	userHandler := user.NewHandler(s.db, graph, cascade, hub, notificationHandler)
	userHandler.RegisterRoutes(subrouter)

	postHandler := post.NewHandler(s.db, interactions, hub)
	postHandler.RegisterRoutes(subrouter)

	wsHandler := ws.NewHandler(hub)
	wsHandler.RegisterRoutes(router)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, handlers.LoggingHandler(os.Stdout, cors(router)))
}
