package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"campus_market/internal/adapters/assets"
	server "campus_market/internal/adapters/http_server"
	"campus_market/internal/adapters/market"
	"campus_market/internal/adapters/observability"
	redisad "campus_market/internal/adapters/redis"
	"campus_market/internal/app"
	"campus_market/internal/shared"
	mysqlrepo "campus_market/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	client, err := market.New(cfg.MarketBase, cfg.MarketRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize marketplace client")
	}
	searches := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewSearchService(client, client, cache, searches, cfg.CacheTTL)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:       q,
		Reviews: client,
		Assets:  assets.NewResolver(cfg.AssetBase),
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
