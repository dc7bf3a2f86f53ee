package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"portfolio-ledger/config"
	"portfolio-ledger/handlers"
	"portfolio-ledger/ledger"
	"portfolio-ledger/middleware"
	"portfolio-ledger/quotes"
	"portfolio-ledger/store"
)

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to the database: ", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance: ", err)
	}
	defer sqlDB.Close()

	rdb, err := config.OpenRedis(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer rdb.Close()

	st := store.NewGorm(db)
	if err := st.AutoMigrate(); err != nil {
		log.Fatal("Failed to migrate models: ", err)
	}

	// Quote lookups go through a Redis cache in front of the provider.
	// Without an API key the service still runs against a small static
	// table, enough for local demos.
	var src quotes.Source
	if cfg.AlphaVantageKey != "" {
		src = quotes.NewCached(quotes.NewAlphaVantage(cfg.AlphaVantageKey), rdb)
	} else {
		log.Println("ALPHA_VANTAGE_API_KEY not set, using static quotes")
		src = quotes.NewStatic(
			quotes.Quote{Symbol: "AAPL", Name: "Apple Inc", PriceCents: 17550},
			quotes.Quote{Symbol: "MSFT", Name: "Microsoft Corporation", PriceCents: 41020},
			quotes.Quote{Symbol: "NFLX", Name: "Netflix Inc", PriceCents: 63805},
		)
	}

	core := ledger.New(st, src)
	h := handlers.New(core, st, src, rdb, cfg.JWTSecret)

	router := gin.Default()

	// Public routes
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.GET("/check", h.CheckUsername)

	// Protected routes
	auth := router.Group("/")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		auth.POST("/buy", h.Buy)
		auth.POST("/sell", h.Sell)
		auth.GET("/portfolio", h.GetPortfolio)
		auth.GET("/history", h.GetHistory)
		auth.GET("/quote/:symbol", h.GetQuote)
	}

	if err := router.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
