package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/config"
	"github.com/milpoint/milpoint/internal/database"
	"github.com/milpoint/milpoint/internal/handler"
	"github.com/milpoint/milpoint/internal/middleware"
	"github.com/milpoint/milpoint/internal/point"
	"github.com/milpoint/milpoint/internal/repository"
	"github.com/milpoint/milpoint/internal/router"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}

	soldiers := repository.NewSoldierRepo(db)
	perms := repository.NewPermissionRepo(db)
	points := repository.NewPointRepo(db)
	workflow := point.NewWorkflow(soldiers, points)

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}
	ratelimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, soldiers, perms), cfg.JWTSecret, ratelimit)
	router.RegisterSoldiers(e, handler.NewSoldierHandler(soldiers, perms), cfg.JWTSecret)
	router.RegisterPoints(e, handler.NewPointHandler(workflow, points), cfg.JWTSecret, cache)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
