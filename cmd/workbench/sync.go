package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/arcanum-sec/workbench/config"
	"github.com/arcanum-sec/workbench/subscription"
)

var (
	syncIndexURL string
	syncOnce     bool
	syncInterval time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Track remote collection indexes",
}

var syncAddCmd = &cobra.Command{
	Use:   "add [collection-id]",
	Short: "Subscribe to a collection in a remote index",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("loading config", err)
		}
		store, closeStore, err := newSubscriptionStore(cfg)
		if err != nil {
			fatal("opening subscription store", err)
		}
		defer closeStore()

		sub := &subscription.Subscription{
			ID:           uuid.NewString(),
			CollectionID: args[0],
			IndexURL:     syncIndexURL,
			CreatedAt:    time.Now().UTC(),
		}
		if err := store.Put(context.Background(), sub); err != nil {
			fatal("registering subscription", err)
		}
		cmd.Println(sub.ID)
	},
}

var syncListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered subscriptions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("loading config", err)
		}
		store, closeStore, err := newSubscriptionStore(cfg)
		if err != nil {
			fatal("opening subscription store", err)
		}
		defer closeStore()

		subs, err := store.List(context.Background())
		if err != nil {
			fatal("listing subscriptions", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(subs); err != nil {
			fatal("encoding subscriptions", err)
		}
	},
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll subscriptions and import stale collections",
	Long: `Poll every registered subscription: fetch its remote index, and
when the collection has advanced past the locally recorded version,
fetch and import the new bundle. Runs until interrupted, or a single
cycle with --once.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal("loading config", err)
		}
		store, closeStore, err := newSubscriptionStore(cfg)
		if err != nil {
			fatal("opening subscription store", err)
		}
		defer closeStore()

		wb, err := newWorkbench()
		if err != nil {
			fatal("initializing workbench", err)
		}

		interval := syncInterval
		if interval <= 0 {
			interval = cfg.Subscriptions.Interval
		}
		opts := []subscription.PollerOption{
			subscription.WithLogger(slog.Default()),
		}
		if interval > 0 {
			opts = append(opts, subscription.WithInterval(interval))
		}
		poller := subscription.NewPoller(store, &subscription.HTTPFetcher{}, wb.Importer, opts...)

		if syncOnce {
			poller.RunOnce(context.Background())
			return
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			fatal("polling", err)
		}
	},
}

// newSubscriptionStore opens the configured subscription store: etcd
// when endpoints are configured, an in-process store otherwise.
func newSubscriptionStore(cfg *config.Config) (subscription.Store, func() error, error) {
	if len(cfg.Subscriptions.EtcdEndpoints) == 0 {
		return subscription.NewMemoryStore(), func() error { return nil }, nil
	}
	store, err := subscription.NewEtcdStore(subscription.EtcdConfig{
		Endpoints: cfg.Subscriptions.EtcdEndpoints,
		Namespace: cfg.Subscriptions.EtcdNamespace,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncAddCmd)
	syncCmd.AddCommand(syncListCmd)
	syncCmd.AddCommand(syncRunCmd)

	syncAddCmd.Flags().StringVar(&syncIndexURL, "index-url", "", "URL of the remote collection index")
	syncAddCmd.MarkFlagRequired("index-url")

	syncRunCmd.Flags().BoolVar(&syncOnce, "once", false, "Run one poll cycle and exit")
	syncRunCmd.Flags().DurationVar(&syncInterval, "interval", 0, "Poll cadence (defaults to the configured interval)")
}
