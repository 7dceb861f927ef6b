package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"flashpool/internal/assets"
	"flashpool/internal/config"
	"flashpool/internal/counterhook"
	"flashpool/internal/curve"
	"flashpool/internal/engine"
	"flashpool/internal/events"
	"flashpool/internal/hooks"
	"flashpool/internal/model"
	"flashpool/internal/storage"
	"flashpool/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "poolsim",
		Short:        "Pool settlement engine simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one settlement session against a hooked pool",
		RunE:  runSession,
	}

	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for durable counters")
	runCmd.Flags().String("counter-file", "./data/counters.json", "counter file path (used when no DSN)")
	runCmd.Flags().Uint32("fee", 3000, "pool fee in hundredths of a bip")
	runCmd.Flags().Int32("tick-spacing", 60, "pool tick spacing")
	runCmd.Flags().Int32("tick-lower", -600, "liquidity range lower tick")
	runCmd.Flags().Int32("tick-upper", 600, "liquidity range upper tick")
	runCmd.Flags().String("liquidity", "10000000000000000000", "liquidity to add")
	runCmd.Flags().String("swap-amount", "1000000000000000", "exact input swap amount")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	trader = common.HexToAddress("0x1000000000000000000000000000000000000001")
	token0 = model.Currency{Address: common.HexToAddress("0x0000000000000000000000000000000000000a00")}
	token1 = model.Currency{Address: common.HexToAddress("0x0000000000000000000000000000000000000b00")}
)

func runSession(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	liquidity, ok := new(big.Int).SetString(cfg.Liquidity, 10)
	if !ok {
		return fmt.Errorf("invalid liquidity %q", cfg.Liquidity)
	}
	swapAmount, ok := new(big.Int).SetString(cfg.SwapAmount, 10)
	if !ok {
		return fmt.Errorf("invalid swap amount %q", cfg.SwapAmount)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.CounterStore
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		store = pgStore
	} else {
		store = storage.NewFileStore(cfg.CounterFile)
	}

	hook, err := counterhook.New(ctx, store, logger, func(ev events.Event) {
		logger.Debug("event delivered", zap.String("point", ev.Point), zap.String("pool_id", ev.PoolID))
	})
	if err != nil {
		return err
	}

	book := assets.NewBook()
	funds := new(big.Int).Lsh(big.NewInt(1), 128)
	book.Mint(trader, token0, funds)
	book.Mint(trader, token1, funds)
	book.Mint(engine.ReserveAccount, token0, funds)
	book.Mint(engine.ReserveAccount, token1, funds)

	eng := engine.New(curve.NewExecutor(), book, logger)

	perms := hook.Permissions()
	c0, c1 := model.SortCurrencies(token0, token1)
	key := model.PoolKey{
		Currency0:   c0,
		Currency1:   c1,
		Fee:         cfg.Fee,
		TickSpacing: cfg.TickSpacing,
		Hooks:       hooks.MakeAddress(common.HexToAddress("0x00000000000000000000000000000000c0de0000"), perms.Flags()),
	}

	if err := eng.RegisterPool(key, hook, perms); err != nil {
		return err
	}

	err = eng.Unlock(ctx, trader, func(s *engine.Session) error {
		if _, err := s.Initialize(ctx, key, curve.Q96); err != nil {
			return err
		}
		if _, _, err := s.ModifyLiquidity(ctx, key, model.ModifyLiquidityParams{
			TickLower:      cfg.TickLower,
			TickUpper:      cfg.TickUpper,
			LiquidityDelta: liquidity,
		}); err != nil {
			return err
		}
		if _, err := s.Swap(ctx, key, model.SwapParams{
			ZeroForOne:      true,
			AmountSpecified: swapAmount,
		}); err != nil {
			return err
		}
		return settleAll(s, key)
	})
	if err != nil {
		return err
	}

	id := key.ID()
	for _, point := range hooks.Points {
		if point == hooks.PointBeforeDonate || point == hooks.PointAfterDonate {
			continue
		}
		logger.Info("counter",
			zap.String("pool_id", id.Hex()),
			zap.String("point", point.String()),
			zap.Uint64("count", hook.Count(id, point)),
		)
	}
	return nil
}

// settleAll zeroes the session's books: pay what is owed, take what
// is due.
func settleAll(s *engine.Session, key model.PoolKey) error {
	for _, asset := range []model.Currency{key.Currency0, key.Currency1} {
		net, err := s.NetOf(asset)
		if err != nil {
			return err
		}
		switch {
		case net.Sign() < 0:
			if err := s.Settle(asset, new(big.Int).Neg(net)); err != nil {
				return err
			}
		case net.Sign() > 0:
			if err := s.Take(asset, s.Sender(), net); err != nil {
				return err
			}
		}
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
