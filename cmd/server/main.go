package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"catalog/internal/catalog"
	"catalog/internal/config"
	mydb "catalog/internal/db"
	"catalog/internal/fakestore"
	"catalog/internal/journal"
	"catalog/internal/logger"
	"catalog/internal/web"
)

var v *viper.Viper

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Product catalog manager for the fakestore API",
	Long: `catalog serves a small web UI to list, create, edit and delete products
of a fakestore-compatible REST API. Changes are not persisted by the demo API.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the remote categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		q := catalog.NewQuery(newClient(cfg), log)
		q.FetchCategories(cmd.Context())
		for _, c := range q.Snapshot().Categories {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Print a page of products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		limit, _ := cmd.Flags().GetInt("limit")
		category, _ := cmd.Flags().GetString("category")
		sort, _ := cmd.Flags().GetString("sort")

		q := catalog.NewQuery(newClient(cfg), log)
		q.FetchProducts(cmd.Context(), limit, category, catalog.ParseOrder(sort))
		out := cmd.OutOrStdout()
		for _, p := range q.Snapshot().Products {
			mark := ""
			if p.Highlighted() {
				mark = " *"
			}
			fmt.Fprintf(out, "%4d  %-33s %10.2f  %.1f%s\n", p.ID, p.DisplayTitle(), p.Price, p.Rating.Rate, mark)
		}
		return nil
	},
}

func init() {
	config.LoadDotenv()
	v = config.New()

	rootCmd.PersistentFlags().String("api", "", "base URL of the product API (API_BASE_URL)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (LOG_LEVEL)")
	_ = v.BindPFlag("api_base_url", rootCmd.PersistentFlags().Lookup("api"))
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	serveCmd.Flags().String("port", "", "listen port (APP_PORT)")
	_ = v.BindPFlag("app_port", serveCmd.Flags().Lookup("port"))

	productsCmd.Flags().Int("limit", catalog.PageSize, "number of products")
	productsCmd.Flags().String("category", catalog.AllCategories, "category, or all")
	productsCmd.Flags().String("sort", "", "price order: asc, desc or empty")

	rootCmd.AddCommand(serveCmd, categoriesCmd, productsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

func newClient(cfg *config.Config) *fakestore.Client {
	opts := []fakestore.Option{fakestore.WithTimeout(cfg.APITimeout)}
	if cfg.BreakerEnabled {
		opts = append(opts, fakestore.WithBreaker("fakestore"))
	}
	return fakestore.New(cfg.APIBaseURL, opts...)
}

func serve(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.DevSecret() {
		log.Warn("SESSION_SECRET not set, using the development fallback")
	}

	var rec journal.Recorder = journal.Nop{}
	db, err := mydb.Open(cfg.DBDSN, log)
	if err != nil {
		return err
	}
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("db handle: %w", err)
		}
		defer sqlDB.Close()

		g := journal.NewGorm(db)
		if err := g.Migrate(); err != nil {
			return fmt.Errorf("migrate journal: %w", err)
		}
		rec = g
	}

	h, err := web.NewServer(newClient(cfg),
		web.WithJournal(rec),
		web.WithLogger(log),
		web.WithSessionSecret(cfg.SessionSecret),
	).Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("api", cfg.APIBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}
