package main

import (
	"context"
	"errors"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/bimakw/swap-router/internal/config"
	"github.com/bimakw/swap-router/internal/domain/entities"
	"github.com/bimakw/swap-router/internal/domain/services"
	"github.com/bimakw/swap-router/internal/infrastructure/cache"
	"github.com/bimakw/swap-router/internal/infrastructure/pool"
	"github.com/bimakw/swap-router/internal/infrastructure/token"
	"github.com/bimakw/swap-router/internal/presentation/handlers"
)

const (
	version = "0.1.0"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("Config file %s not found, using built-in demo venue", configPath)
			cfg = demoConfig()
		} else {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if addr := getEnv("REDIS_ADDR", ""); addr != "" {
		cfg.Redis.Addr = addr
	}
	if port := getEnv("PORT", ""); port != "" {
		cfg.Server.Port = port
	}

	// Token ledgers
	registry := token.NewRegistry()
	wrapped := token.NewWrappedNative(common.HexToAddress(cfg.Router.WrappedNative))
	registry.Register(wrapped)
	tokenList := make([]entities.Token, 0, len(cfg.Tokens))
	for _, tc := range cfg.Tokens {
		addr := common.HexToAddress(tc.Address)
		tokenList = append(tokenList, entities.Token{
			Address:  addr,
			Symbol:   tc.Symbol,
			Decimals: tc.Decimals,
		})
		if addr == wrapped.Address() {
			continue
		}
		registry.Register(token.NewAssetLedger(addr))
	}

	// Pools
	factory := pool.NewFactory(common.HexToAddress(cfg.Router.FactoryAddr), registry)
	for i, pc := range cfg.Pools {
		tokenA := common.HexToAddress(pc.TokenA)
		tokenB := common.HexToAddress(pc.TokenB)
		p, err := factory.CreatePool(tokenA, tokenB, pc.Fee)
		if err != nil {
			log.Fatalf("Failed to create pool %d: %v", i, err)
		}
		reserves, err := pc.Reserves()
		if err != nil {
			log.Fatalf("Invalid reserves for pool %d: %v", i, err)
		}
		if err := seedPool(registry, p.Address(), tokenA, reserves[0]); err != nil {
			log.Fatalf("Failed to seed pool %d: %v", i, err)
		}
		if err := seedPool(registry, p.Address(), tokenB, reserves[1]); err != nil {
			log.Fatalf("Failed to seed pool %d: %v", i, err)
		}
		p.Sync()
		log.Printf("Pool %s ready: %s/%s fee=%d", p.Address().Hex(), pc.TokenA, pc.TokenB, pc.Fee)
	}

	// Router
	var opts []services.Option
	if cfg.Router.RefundWrapped {
		opts = append(opts, services.WithWrappedRefunds())
	}
	routerAddr := common.HexToAddress(cfg.Router.Address)
	router := services.NewSwapRouter(routerAddr, factory, registry, wrapped, opts...)

	// Quote cache
	var cacheClient cache.Cache
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v. Using in-memory cache.", err)
			cacheClient = cache.NewInMemoryCache()
		} else {
			cacheClient = redisCache
			log.Printf("Connected to Redis at %s", cfg.Redis.Addr)
		}
	} else {
		cacheClient = cache.NewInMemoryCache()
		log.Println("Using in-memory cache")
	}

	quoteService := services.NewQuoteService(factory, cacheClient)

	// Handlers
	healthHandler := handlers.NewHealthHandler(version)
	quoteHandler := handlers.NewQuoteHandler(quoteService)
	swapHandler := handlers.NewSwapHandler(router)
	faucetHandler := handlers.NewFaucetHandler(registry, wrapped, routerAddr)
	tokenHandler := handlers.NewTokenHandler(tokenList)

	// HTTP router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/quote", quoteHandler.GetQuote)
		r.Get("/tokens", tokenHandler.ListTokens)
		r.Post("/swap/exact-input", swapHandler.ExactInput)
		r.Post("/swap/exact-output", swapHandler.ExactOutput)
		r.Post("/faucet", faucetHandler.Drip)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Starting %s v%s on port %s", cfg.App.Name, version, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

// seedPool mints reserve supply directly onto a pool's balance.
func seedPool(registry *token.Registry, poolAddr, tokenAddr common.Address, amount *big.Int) error {
	ledger, err := registry.Get(tokenAddr)
	if err != nil {
		return err
	}
	m, ok := ledger.(interface {
		Mint(common.Address, *big.Int)
	})
	if !ok {
		return token.ErrUnknownToken
	}
	m.Mint(poolAddr, amount)
	return nil
}

// demoConfig returns a small seeded venue for local development: wrapped
// ether plus two tokens, chained so multi-hop routes exist.
func demoConfig() *config.Config {
	wnative := entities.WETH.Address.Hex()
	const (
		tokenB = "0x000000000000000000000000000000000000B002"
		tokenC = "0x000000000000000000000000000000000000C003"
	)
	cfg := &config.Config{
		Router: config.RouterConfig{WrappedNative: wnative},
		Tokens: []config.TokenConfig{
			{Address: wnative, Symbol: entities.WETH.Symbol, Decimals: entities.WETH.Decimals},
			{Address: tokenB, Symbol: "TKB", Decimals: 18},
			{Address: tokenC, Symbol: "TKC", Decimals: 18},
		},
		Pools: []config.PoolConfig{
			{TokenA: wnative, TokenB: tokenB, Fee: pool.FeeMedium, ReserveA: "1000000000000000000000", ReserveB: "2000000000000000000000"},
			{TokenA: tokenB, TokenB: tokenC, Fee: pool.FeeLow, ReserveA: "3000000000000000000000", ReserveB: "3000000000000000000000"},
		},
	}
	cfg.SetDefaults()
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
