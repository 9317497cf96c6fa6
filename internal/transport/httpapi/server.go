package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/avolkov/stockpad/config"
	"github.com/gorilla/mux"
)

type Server struct {
	router *mux.Router
	server *http.Server
}

func NewServer(cfg *config.Config, ctrl *Controller) *Server {
	router := mux.NewRouter()

	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware)

	router.HandleFunc("/", ctrl.Index).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/watchlist", ctrl.GetWatchlist).Methods(http.MethodGet)
	api.HandleFunc("/watchlist", ctrl.AddTicker).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/refresh", ctrl.RefreshAll).Methods(http.MethodPost)
	api.HandleFunc("/watchlist/export", ctrl.Export).Methods(http.MethodGet)
	api.HandleFunc("/watchlist/{ticker}", ctrl.EditField).Methods(http.MethodPatch)
	api.HandleFunc("/watchlist/{ticker}", ctrl.RemoveTicker).Methods(http.MethodDelete)

	return &Server{
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
			Handler:      router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
	}
}

func (s *Server) Start() {
	go func() {
		slog.Info("http server listening", slog.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.String("err", err.Error()))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) {
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown failed", slog.String("err", err.Error()))
	}
}
