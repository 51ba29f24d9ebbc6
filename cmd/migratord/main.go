package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/adapter"
	"github.com/woof-software/migrator-v2-sub003/config"
	"github.com/woof-software/migrator-v2-sub003/convert"
	"github.com/woof-software/migrator-v2-sub003/ledger"
	"github.com/woof-software/migrator-v2-sub003/migrate"
	"github.com/woof-software/migrator-v2-sub003/observability"
	"github.com/woof-software/migrator-v2-sub003/observability/logging"
	"github.com/woof-software/migrator-v2-sub003/pathfinder"
	"github.com/woof-software/migrator-v2-sub003/rpc"
	"github.com/woof-software/migrator-v2-sub003/storage"
	"github.com/woof-software/migrator-v2-sub003/swap"
	"github.com/woof-software/migrator-v2-sub003/token"
)

const adminTokenEnv = "MIGRATOR_ADMIN_TOKEN"

func main() {
	configFile := flag.String("config", "./migrator.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("migratord", cfg.Environment, logging.ParseLevel(cfg.LogLevel))

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "migrations"))
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	tokens := token.NewLedger()
	engine, finder, converter, err := buildEngine(cfg, tokens, db, logger)
	if err != nil {
		logger.Error("build engine", slog.Any("error", err))
		os.Exit(1)
	}

	adminToken := strings.TrimSpace(os.Getenv(adminTokenEnv))
	if adminToken == "" {
		adminToken = cfg.AdminToken
	}

	server := rpc.NewServer(rpc.Config{
		Engine:        engine,
		Finder:        finder,
		Converter:     converter,
		Owner:         cfg.OwnerAddress(),
		AdminToken:    adminToken,
		RatePerSecond: cfg.RateLimitPerSecond,
		Burst:         cfg.RateLimitBurst,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", slog.String("address", cfg.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
	logger.Info("stopped")
}

// buildEngine assembles the settlement stack from configuration: the shared
// token ledger, one source ledger per adapter, the destination markets with
// their flash pools and the adapters tying them together.
func buildEngine(cfg *config.Config, tokens *token.Ledger, db storage.Database, logger *slog.Logger) (*migrate.Engine, pathfinder.Finder, *convert.Module, error) {
	owner, treasury := cfg.OwnerAddress(), cfg.TreasuryAddress()

	engine, err := migrate.NewEngine(tokens, owner, treasury)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("engine: %w", err)
	}
	engine.SetStore(db)
	engine.SetLogger(logger)
	engine.SetMetrics(observability.Migrations(), observability.Admin())

	var converter *convert.Module
	if cfg.BridgeEnabled() {
		bridgeAddr := common.HexToAddress(cfg.Bridge.Address)
		tokenA := common.HexToAddress(cfg.Bridge.TokenA)
		tokenB := common.HexToAddress(cfg.Bridge.TokenB)
		bridge := convert.NewLedgerBridge(tokens, bridgeAddr, tokenA, tokenB)
		converter, err = convert.NewModule(tokens, bridge, bridgeAddr, tokenA, tokenB, treasury)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bridge: %w", err)
		}
	} else {
		converter, err = convert.NewModule(tokens, nil, common.Address{}, common.Address{}, common.Address{}, treasury)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bridge: %w", err)
		}
	}

	routerAddr := common.HexToAddress(cfg.Router.Address)
	router := swap.NewStaticRouter(tokens, routerAddr, func() uint64 {
		return uint64(time.Now().Unix())
	})
	swapper := swap.NewModule(tokens, router, routerAddr, treasury)
	swapper.SetLogger(logger)

	comets, err := cfg.CometRuntimes()
	if err != nil {
		return nil, nil, nil, err
	}
	for _, runtime := range comets {
		market := ledger.NewCometLedger(tokens, runtime.Address, runtime.BaseToken, runtime.BaseBorrowMin)
		pool := migrate.NewLedgerFlashPool(tokens, runtime.FlashPool, runtime.FlashToken0, runtime.FlashToken1, runtime.FlashFeeBps)
		pool.SetBorrower(engine)
		if err := engine.SetFlashData(owner, market, pool); err != nil {
			return nil, nil, nil, fmt.Errorf("comet %s: %w", runtime.Address.Hex(), err)
		}
	}

	for _, runtime := range cfg.AdapterRuntimes() {
		var source ledger.Source
		switch runtime.Protocol {
		case "aave", "spark":
			source = ledger.NewPool(tokens, runtime.Pool, runtime.Protocol)
		case "morpho":
			source = ledger.NewMorpho(tokens, runtime.Pool)
		default:
			return nil, nil, nil, fmt.Errorf("adapter %s: unknown protocol %q", runtime.Address.Hex(), runtime.Protocol)
		}
		executor, err := adapter.New(adapter.Config{
			Source:        source,
			Tokens:        tokens,
			Swapper:       swapper,
			Converter:     converter,
			Account:       treasury,
			FullMigration: runtime.FullMigration,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("adapter %s: %w", runtime.Address.Hex(), err)
		}
		executor.SetLogger(logger)
		if err := engine.SetAdapter(owner, runtime.Address, executor); err != nil {
			return nil, nil, nil, fmt.Errorf("adapter %s: %w", runtime.Address.Hex(), err)
		}
	}

	var finder pathfinder.Finder
	if routes := cfg.RouteRuntimes(); len(routes) > 0 {
		static := pathfinder.NewStaticFinder(converter)
		for i, route := range routes {
			rates := make([]*big.Rat, len(route.Fees))
			for j := range rates {
				rates[j] = big.NewRat(1, 1)
			}
			if err := static.AddRoute(route.Tokens, route.Fees, rates); err != nil {
				return nil, nil, nil, fmt.Errorf("route %d: %w", i, err)
			}
		}
		finder = static
	}

	return engine, finder, converter, nil
}
