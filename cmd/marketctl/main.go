package main

import (
	"NFTMarket/internal/config"
	"NFTMarket/internal/events"
	"NFTMarket/internal/repo"
	"NFTMarket/internal/service"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var dsn string

// marketApp: зависимости одной команды. Вызывающий обязан вызвать Close.
type marketApp struct {
	logger    *zap.Logger
	publisher events.Publisher
	tokens    *service.TokenService
	closeDB   func() error
}

func newApp() (*marketApp, error) {
	cfg := config.FromEnv()
	if dsn != "" {
		cfg.DatabaseDSN = dsn
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	sugar := logger.Sugar()

	db, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	repos := repo.NewRepositories(db)
	pub := events.Connect(cfg, sugar)
	return &marketApp{
		logger:    logger,
		publisher: pub,
		tokens:    service.NewTokenService(repos, pub, sugar, service.WithConflictRetries(cfg.ConflictRetries)),
		closeDB:   sqlDB.Close,
	}, nil
}

func (a *marketApp) Close() {
	_ = a.publisher.Close()
	_ = a.closeDB()
	_ = a.logger.Sync()
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid token id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var rootCmd = &cobra.Command{
	Use:          "marketctl",
	Short:        "Marketplace maintenance tool",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	},
}

var removeFromSaleCmd = &cobra.Command{
	Use:   "remove-from-sale <token-id>...",
	Short: "Take tokens off sale and delete their auctions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.tokens.RemoveFromSale(cmd.Context(), ids)
		if err != nil {
			return fmt.Errorf("remove from sale: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %d token(s)\n", n)
		return nil
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize-auction <token-id>...",
	Short: "Settle ended auctions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var failed int
		for _, id := range ids {
			v, err := a.tokens.FinalizeAuction(cmd.Context(), id)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "token %d: %v\n", id, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token %d: owner %d\n", id, v.Token.OwnerID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d auction(s) not finalized", failed, len(ids))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dsn, "dsn", "d", "", "database DSN (overrides DATABASE_URI)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(removeFromSaleCmd)
	rootCmd.AddCommand(finalizeCmd)
}
