package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strings"
	"time"

	"creditledger/config"
	"creditledger/core/events"
	nativecommon "creditledger/native/common"
	"creditledger/native/controller"
	"creditledger/native/credit"
	"creditledger/native/token"
	"creditledger/native/wallet"
	"creditledger/observability/logging"
	"creditledger/rpc"
	"creditledger/state"
	"creditledger/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("CREDITLEDGER_ENV"))
	logger := logging.Setup("creditledger", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	store := state.NewStore(db)
	ledger, err := token.NewPersistentLedger(db)
	if err != nil {
		logger.Error("Failed to load token ledger", slog.Any("error", err))
		os.Exit(1)
	}

	owner, err := config.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		logger.Error("Invalid owner address", slog.Any("error", err))
		os.Exit(1)
	}
	custody, err := config.ParseAddress(cfg.CustodyAddress)
	if err != nil {
		logger.Error("Invalid custody address", slog.Any("error", err))
		os.Exit(1)
	}
	treasury, err := config.ParseAddress(cfg.Ledger.TreasuryAddress)
	if err != nil {
		logger.Error("Invalid treasury address", slog.Any("error", err))
		os.Exit(1)
	}

	roles := nativecommon.NewRoles(owner)
	for _, raw := range cfg.Operators {
		addr, err := config.ParseAddress(raw)
		if err != nil {
			logger.Error("Invalid operator address", slog.Any("error", err))
			os.Exit(1)
		}
		roles.GrantOperator(addr)
	}
	for _, raw := range cfg.Networks {
		addr, err := config.ParseAddress(raw)
		if err != nil {
			logger.Error("Invalid network address", slog.Any("error", err))
			os.Exit(1)
		}
		roles.GrantNetwork(addr)
	}

	ring := events.NewRing(cfg.Ledger.EventBufferSize)

	factory := wallet.NewDeterministicFactory(ledger, custody)
	ctrl := controller.NewEngine(custody, treasury)
	ctrl.SetState(store)
	ctrl.SetFactory(factory)
	ctrl.SetToken(ledger)
	ctrl.SetRoles(roles)
	ctrl.SetPauses(store)
	ctrl.SetEmitter(ring)

	if err := applyRedemptionPolicy(ctrl, store, cfg, owner); err != nil {
		logger.Error("Failed to apply redemption policy", slog.Any("error", err))
		os.Exit(1)
	}
	if err := ensureCommunityWallet(ctrl, cfg, owner, logger); err != nil {
		logger.Error("Failed to prepare community wallet", slog.Any("error", err))
		os.Exit(1)
	}

	manager := credit.NewStaticManager(time.Duration(cfg.Credit.CreditLineTTLHours) * time.Hour)
	pools := credit.NewPoolSet()
	feeManager := credit.NewEngine(custody, cfg.Credit.UnderwriterFeePPM)
	if err := feeManager.SetState(store); err != nil {
		logger.Error("Failed to load credit state", slog.Any("error", err))
		os.Exit(1)
	}
	feeManager.SetManager(manager)
	feeManager.SetRequest(manager)
	feeManager.SetRoles(roles)
	feeManager.SetToken(ledger)
	feeManager.SetPauses(store)
	feeManager.SetEmitter(ring)
	feeManager.SetMaxBatch(cfg.Credit.MaxDistributeBatch)
	feeManager.SetPoolRegistry(pools)

	server := rpc.NewServer(ctrl, feeManager, ring)
	logger.Info("Starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// applyRedemptionPolicy prefers the persisted policy and falls back to the
// configured one, persisting it for subsequent boots.
func applyRedemptionPolicy(ctrl *controller.Engine, store *state.Store, cfg *config.Config, owner [20]byte) error {
	numerator, denominator, minimum, ok, err := store.RedemptionPolicy()
	if err != nil {
		return err
	}
	if !ok {
		numerator = big.NewInt(cfg.Ledger.RedemptionNumerator)
		denominator = big.NewInt(cfg.Ledger.RedemptionDenominator)
		minimum, err = cfg.RedemptionMinimum()
		if err != nil {
			return err
		}
		if err := store.PutRedemptionPolicy(numerator, denominator, minimum); err != nil {
			return err
		}
	}
	if err := ctrl.SetRedemptionFee(owner, numerator, denominator); err != nil {
		return err
	}
	return ctrl.SetRedemptionFeeMinimum(owner, minimum)
}

// ensureCommunityWallet registers the configured community identifier on
// first boot and designates it as the round-up destination.
func ensureCommunityWallet(ctrl *controller.Engine, cfg *config.Config, owner [20]byte, logger *slog.Logger) error {
	raw := strings.TrimSpace(cfg.Ledger.CommunityIdentifier)
	if raw == "" {
		return nil
	}
	id, err := config.ParseIdentifier(raw)
	if err != nil {
		return err
	}
	if _, err := ctrl.WalletAddress(id); err != nil {
		addr, err := ctrl.NewWallet(owner, id)
		if err != nil {
			return err
		}
		logger.Info("Registered community wallet", slog.String("wallet", fmt.Sprintf("0x%x", addr)))
	}
	return ctrl.SetCommunityWallet(owner, id)
}
