package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"campus_market/internal/adapters/market"
	"campus_market/internal/adapters/observability"
	redisad "campus_market/internal/adapters/redis"
	"campus_market/internal/app"
	"campus_market/internal/shared"
	mysqlrepo "campus_market/internal/storage/mysql"
)

// The warmer re-executes the most popular recorded searches so their
// baselines sit in the cache before users ask for them. One-shot; run it
// from cron or a deploy hook.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Str("base", cfg.MarketBase).
		Int("workers", cfg.Workers).
		Int("top", cfg.WarmTopN).
		Msg("cache warmer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	searches := mysqlrepo.New(db)

	client, err := market.New(cfg.MarketBase, cfg.MarketRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize marketplace client")
	}
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	// nil search log: warming must not re-log the queries it replays
	svc := app.NewSearchService(client, client, cache, nil, cfg.CacheTTL)

	top, err := searches.TopQueries(ctx, cfg.WarmTopN)
	if err != nil {
		log.Fatal().Err(err).Msg("loading top queries failed")
	}
	if len(top) == 0 {
		log.Info().Msg("no recorded searches; nothing to warm")
		return
	}

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, qs := range top {
		qs := qs

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			defer sem.Release(1)

			results, err := svc.Search(ctx, query)
			if err != nil {
				log.Warn().Str("query", query).Err(err).Msg("warm failed")
				return
			}
			log.Info().Str("query", query).Int("results", len(results)).Msg("warm ok")
		}(qs.Query)
	}

	wg.Wait()
	log.Info().Msg("cache warming completed")
}
