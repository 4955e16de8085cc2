package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Tanishq1604/HD-wallet/internal/api"
	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/confirm"
	"github.com/Tanishq1604/HD-wallet/internal/ethereum"
	"github.com/Tanishq1604/HD-wallet/internal/graceful"
	"github.com/Tanishq1604/HD-wallet/internal/keyring"
	"github.com/Tanishq1604/HD-wallet/internal/logging"
	"github.com/Tanishq1604/HD-wallet/internal/metrics"
	"github.com/Tanishq1604/HD-wallet/internal/neo"
	"github.com/Tanishq1604/HD-wallet/internal/sendflow"
	"github.com/Tanishq1604/HD-wallet/internal/solana"
	"github.com/Tanishq1604/HD-wallet/internal/tron"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
	"github.com/Tanishq1604/HD-wallet/internal/walletstate"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger := logging.NewLogger(cfg.LogFormat)

	metricsServer := metrics.StartMetricsServer(cfg.Metrics, logger)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
		}
	}()

	deriver := keyring.NewDeriver()

	eth, err := ethereum.Dial(ctx, cfg.Ethereum.RPCURL, deriver)
	if err != nil {
		logger.Fatalf("failed to connect to ethereum rpc: %v", err)
	}

	registry := wallet.NewRegistry(
		eth,
		solana.Dial(cfg.Solana.RPCURL, deriver),
		tron.New(tron.NewClient(cfg.Tron.APIURL, cfg.Tron.APIKey), deriver),
		neo.New(neo.NewClient(cfg.Neo.RPCURL), deriver),
	)

	store := walletstate.NewStore()
	seeds := keyring.EnvSource{Var: cfg.SeedPhraseVar}
	if err := bootstrapAccounts(ctx, cfg, registry, store, seeds, logger); err != nil {
		logger.Fatalf("failed to derive initial accounts: %v", err)
	}

	tracker := confirm.New(store, cfg.ConfirmTimeout, 0)
	orchestrator := sendflow.NewOrchestrator(registry, seeds, store, tracker, nil)

	server := api.NewServer(
		cfg.Port,
		registry,
		store,
		sendflow.NewValidator(registry),
		sendflow.NewMaxAmountCalculator(registry),
		orchestrator,
		sendflow.NewFeeWatcher(0),
		logger,
	)

	go func() {
		sig := <-graceful.MakeSigintChan()
		logger.Infof("received exit signal: %v", sig)
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}

// bootstrapAccounts derives the default account on every chain so the send
// flow has an active address and derivation path to work with.
func bootstrapAccounts(ctx context.Context, cfg config, registry *wallet.Registry, store *walletstate.Store, seeds keyring.Source, logger *logrus.Logger) error {
	phrase, err := seeds.Phrase(ctx)
	if err != nil {
		return err
	}

	paths := map[chain.ID]string{
		chain.Ethereum: cfg.Ethereum.DerivationPath,
		chain.Solana:   cfg.Solana.DerivationPath,
		chain.Tron:     cfg.Tron.DerivationPath,
		chain.Neo:      cfg.Neo.DerivationPath,
	}

	for _, id := range chain.All() {
		adapter, err := registry.Get(id)
		if err != nil {
			return err
		}
		key, err := adapter.DeriveKey(phrase, paths[id])
		if err != nil {
			return err
		}
		if err := store.AddAccount(id, walletstate.Account{
			Name:           "Main",
			DerivationPath: paths[id],
			Address:        key.Address,
		}); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"chain":   id,
			"address": key.Address,
		}).Info("account ready")
	}
	return nil
}
