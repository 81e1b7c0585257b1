// Package webd serves stored grid results over HTTP and streams completed grids over a websocket.
package webd

import (
	"context"
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/olahol/melody"
	"github.com/rotblauer/trackclust/conceptual"
	"github.com/rotblauer/trackclust/names"
	"github.com/rotblauer/trackclust/params"
	"github.com/rotblauer/trackclust/trackdb"
	"github.com/rotblauer/trackclust/trackdb/boltdb"
	"github.com/rotblauer/trackclust/types/segment"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"
)

// Store is what the daemon reads results from and writes processed grids to.
type Store interface {
	trackdb.Reader
	trackdb.Sink
}

type WebDaemon struct {
	Config   *params.WebDaemonConfig
	Store    Store
	Resolver names.Resolver

	logger         *slog.Logger
	melodyInstance *melody.Melody
	recent         *lru.Cache[conceptual.GridID, *segment.GridResult]
	completedSub   event.Subscription
	started        time.Time
}

// NewWebDaemon opens the bolt store under config.DataDir.
func NewWebDaemon(config *params.WebDaemonConfig) (*WebDaemon, error) {
	if config == nil {
		config = params.DefaultWebDaemonConfig()
	}
	store, err := boltdb.Open(filepath.Join(config.DataDir, params.BoltDBName), false)
	if err != nil {
		return nil, err
	}
	d, err := NewWebDaemonWithStore(config, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return d, nil
}

func NewWebDaemonWithStore(config *params.WebDaemonConfig, store Store) (*WebDaemon, error) {
	if config.Pipeline == nil {
		config.Pipeline = params.DefaultPipelineConfig()
	}
	size := config.CacheSize
	if size < 1 {
		size = params.CacheGridResultsSize
	}
	recent, err := lru.New[conceptual.GridID, *segment.GridResult](size)
	if err != nil {
		return nil, err
	}
	d := &WebDaemon{
		Config:   config,
		Store:    store,
		Resolver: names.Nop{},
		logger:   slog.With("d", "web"),
		recent:   recent,
		started:  time.Now(),
	}
	d.initMelody()
	return d, nil
}

// Run serves until ctx is done, then shuts the server down.
func (s *WebDaemon) Run(ctx context.Context) error {
	ln, err := net.Listen(s.Config.Network, s.Config.Address)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting web daemon", "network", s.Config.Network, "address", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close stops the websocket feed and closes the store.
func (s *WebDaemon) Close() error {
	s.completedSub.Unsubscribe()
	err := s.melodyInstance.Close()
	if errors.Is(err, melody.ErrClosed) {
		err = nil
	}
	return errors.Join(err, s.Store.Close())
}

func (s *WebDaemon) NewRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Use(s.loggingMiddleware)

	router.Path("/socket").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.melodyInstance.HandleRequest(w, r); err != nil {
			s.logger.Warn("Websocket upgrade failed", "error", err)
		}
	})

	apiRoutes := router.NewRoute().Subrouter()
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/status").HandlerFunc(s.statusReport).Methods(http.MethodGet)
	apiJSONRoutes.Path("/grids").HandlerFunc(s.handleGrids).Methods(http.MethodGet)
	apiJSONRoutes.Path("/grids/{grid}").HandlerFunc(s.handleGrid).Methods(http.MethodGet)
	apiJSONRoutes.Path("/grids/{grid}/clusters").HandlerFunc(s.handleClusters).Methods(http.MethodGet)

	geoJSONRoutes := apiRoutes.NewRoute().Subrouter()
	geoJSONRoutes.Use(contentTypeMiddlewareFunc("application/geo+json"))
	geoJSONRoutes.Path("/grids/{grid}/segments").HandlerFunc(s.handleSegments).Methods(http.MethodGet)

	authenticatedAPIRoutes := apiJSONRoutes.NewRoute().Subrouter()
	authenticatedAPIRoutes.Use(s.tokenAuthenticationMiddleware)
	authenticatedAPIRoutes.Path("/grids/{grid}/process").HandlerFunc(s.handleProcess).Methods(http.MethodPost)

	return router
}
