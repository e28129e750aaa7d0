package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/coding-arena/arena/internal/api/admin"
	"github.com/coding-arena/arena/internal/api/user"
	"github.com/coding-arena/arena/internal/codeforces"
	"github.com/coding-arena/arena/internal/config"
	"github.com/coding-arena/arena/internal/contest"
	"github.com/coding-arena/arena/internal/database"
	"github.com/coding-arena/arena/internal/pubsub"
	"github.com/coding-arena/arena/internal/standings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var Version = "dev-build"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "arena",
		Short: "Live ICPC-style standings for contests judged on Codeforces",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default $ARENA_CONFIG or config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the user and admin API servers",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(configPath)
			},
		},
		newStandingsCommand(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print the build version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(Version)
			},
		},
	)
	return root
}

// setup loads the config and installs the global logger.
func setup(configPath string) (*config.Config, func()) {
	config.LoadDotEnv()

	cfg, err := config.Load(config.Path(configPath))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Logger.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
	return cfg, func() { _ = logger.Sync() }
}

func newAggregator(cfg *config.Config, metrics *standings.Metrics) *standings.Aggregator {
	client := codeforces.NewClient(codeforces.Options{
		BaseURL:   cfg.Judge.BaseURL,
		RateLimit: rate.Limit(cfg.Judge.RateLimit),
		Burst:     cfg.Judge.Burst,
		APIKey:    cfg.Judge.APIKey,
		APISecret: cfg.Judge.APISecret,
	})
	return standings.NewAggregator(client, standings.AggregatorConfig{
		FetchTimeout:   cfg.Judge.FetchTimeout,
		MaxConcurrency: cfg.Judge.MaxConcurrency,
		Scorer:         standings.Scorer{AttemptPenalty: cfg.Standings.AttemptPenalty},
		Metrics:        metrics,
	})
}

func serve(configPath string) error {
	fmt.Fprintf(os.Stderr, "Arena %s - Live Contest Standings\n\n", Version)

	cfg, sync := setup(configPath)
	defer sync()

	// database
	db, err := database.Init(cfg.Storage.Database)
	if err != nil {
		zap.S().Fatalf("failed to initialize database: %v", err)
	}
	zap.S().Info("database initialized successfully")

	// contests
	if _, err := contest.Sync(db, cfg.Contest); err != nil {
		zap.S().Fatalf("failed to load contests: %v", err)
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := standings.NewMetrics(reg)

	// standings
	store := database.NewStore(db)
	broker := pubsub.GetBroker()
	manager := standings.NewManager(store, newAggregator(cfg, metrics), standings.ManagerConfig{
		SettleDelay:     cfg.Standings.SettleDelay,
		RefreshInterval: cfg.Standings.RefreshInterval,
		Metrics:         metrics,
		Publisher:       pubsub.StandingsPublisher{Broker: broker},
		OnEnded:         store.RecordFinal,
	})

	ids, err := database.ListUnfinishedContestIDs(db, time.Now())
	if err != nil {
		zap.S().Fatalf("failed to list contests: %v", err)
	}
	for _, id := range ids {
		if _, err := manager.Track(context.Background(), id); err != nil {
			zap.S().Errorf("failed to track contest %s: %v", id, err)
		}
	}
	zap.S().Infof("tracking %d contests", len(manager.Tracked()))

	// API servers
	servers := []*http.Server{{
		Addr:    cfg.Listen,
		Handler: user.NewUserRouter(user.NewHandler(cfg, db, manager, broker)),
	}}
	if cfg.Admin.Enabled {
		servers = append(servers, &http.Server{
			Addr:    cfg.Admin.Listen,
			Handler: admin.NewAdminRouter(admin.NewHandler(cfg, db, manager, broker, reg)),
		})
	}

	for _, srv := range servers {
		go func(srv *http.Server) {
			zap.S().Infof("starting server at %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.S().Fatalf("failed to start server at %s: %v", srv.Addr, err)
			}
		}(srv)
	}

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			zap.S().Warnf("server at %s did not shut down cleanly: %v", srv.Addr, err)
		}
	}
	manager.Shutdown()
	return nil
}

func newStandingsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "standings [contest-id]",
		Short: "Compute the standings of a stored contest once and print them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sync := setup(*configPath)
			defer sync()

			db, err := database.Init(cfg.Storage.Database)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			c, err := database.NewStore(db).GetContest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := newAggregator(cfg, nil).Aggregate(cmd.Context(), c)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "RANK\tNAME\tHANDLE\tSOLVED\tPENALTY\n")
			for i, r := range result.Records {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\n", i+1, r.Name, r.Handle, r.Solved, r.Penalty)
			}
			return w.Flush()
		},
	}
}
