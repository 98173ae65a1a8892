package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"Conduit/internal/auth"
	"Conduit/internal/calc/conduit"
	"Conduit/internal/calc/premium/autodesign"
	"Conduit/internal/calc/premium/batch"
	"Conduit/internal/calc/premium/importer"
	"Conduit/internal/calc/premium/recommend"
	"Conduit/internal/calc/report"
	"Conduit/internal/calc/tables"
	"Conduit/internal/config"
	"Conduit/internal/logging"
	"Conduit/internal/project"
	"Conduit/internal/repo"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

var wg sync.WaitGroup

type services struct {
	projects repo.ProjectStore
	selector *conduit.Selector
	authEnv  *auth.Authenv
	limiter  *auth.IPRateLimiter
}

func CORS(origin string, mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if origin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func HandleList(mux *mux.Router, s services) {
	tablesH := &tables.Handler{Tables: s.selector.Tables()}
	conduitH := &conduit.Handler{Selector: s.selector}
	reportH := &report.Handler{Selector: s.selector}
	batchH := &batch.Handler{Selector: s.selector}
	importH := &importer.Handler{Selector: s.selector}
	recommendH := &recommend.Handler{Selector: s.selector}
	autoH := &autodesign.Handler{Selector: s.selector}
	projectH := &project.ProjectHandler{Repo: s.projects, Selector: s.selector}

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(s.limiter.LimitMiddleware)

	api.HandleFunc("/login", s.authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", s.authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/tables", tablesH.Catalog).Methods("GET")
	api.HandleFunc("/tools/conduit/calc", conduitH.Calc).Methods("POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(s.authEnv.AuthMiddleware)

	secureApi.HandleFunc("/logout", s.authEnv.LogoutHandler).Methods("POST")

	secureApi.HandleFunc("/tools/conduit/check", conduitH.Check).Methods("POST")
	secureApi.HandleFunc("/tools/conduit/report/{format}", reportH.Generate).Methods("POST")

	secureApi.HandleFunc("/tools-premium/conduit/batch", batchH.Conduit).Methods("POST")
	secureApi.HandleFunc("/tools-premium/conduit/import", importH.Conduit).Methods("POST")
	secureApi.HandleFunc("/tools-premium/conduit/recommend", recommendH.Conduit).Methods("POST")
	secureApi.HandleFunc("/tools-premium/conduit/autodesign", autoH.Conduit).Methods("POST")

	secureApi.HandleFunc("/projects", projectH.List).Methods("GET")
	secureApi.HandleFunc("/projects", projectH.Create).Methods("POST")
	secureApi.HandleFunc("/projects/{id:[0-9]+}", projectH.Get).Methods("GET")
	secureApi.HandleFunc("/projects/{id:[0-9]+}", projectH.Delete).Methods("DELETE")
	secureApi.HandleFunc("/projects/{id:[0-9]+}/conductors", projectH.AddConductor).Methods("POST")
	secureApi.HandleFunc("/projects/{id:[0-9]+}/conductors", projectH.ClearConductors).Methods("DELETE")
	secureApi.HandleFunc("/projects/{id:[0-9]+}/conductors/{index:[0-9]+}", projectH.RemoveConductor).Methods("DELETE")
	secureApi.HandleFunc("/projects/{id:[0-9]+}/calculate", projectH.Calculate).Methods("POST")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("logging")
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}
	tb, err := cfg.Tables()
	if err != nil {
		log.Fatal().Err(err).Msg("reference tables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := repo.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer db.Close()
	if err := repo.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("database")
	}

	users := repo.NewPostgresUserDB(db)
	limiter := auth.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	s := services{
		projects: repo.NewPostgresProjectDB(db),
		selector: conduit.NewSelector(tb),
		authEnv:  &auth.Authenv{JWTkey: []byte(cfg.TokenKey), Repo: users, SecureCookie: cfg.TLSEnabled()},
		limiter:  limiter,
	}

	router := mux.NewRouter()
	HandleList(router, s)
	handler := logging.RequestLogger(CORS(cfg.CORSOrigin, router))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		limiter.Run(ctx, time.Minute, 10*time.Minute)
	}()
	go func() {
		defer wg.Done()
		log.Info().
			Str("addr", cfg.Addr).
			Bool("tls", cfg.TLSEnabled()).
			Str("standard", tb.Standard()).
			Str("edition", tb.Version()).
			Msg("starting server")
		var err error
		if cfg.TLSEnabled() {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, closing active connections")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown")
	}
	log.Info().Msg("server stopped")

	wg.Wait()
}
