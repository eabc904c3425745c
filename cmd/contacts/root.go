package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Overland-East-Bay/contact-manager/internal/adapters/restrepo"
	"github.com/Overland-East-Bay/contact-manager/internal/adapters/transport"
	"github.com/Overland-East-Bay/contact-manager/internal/app/contacts"
	platformclock "github.com/Overland-East-Bay/contact-manager/internal/platform/clock"
	"github.com/Overland-East-Bay/contact-manager/internal/platform/config"
	"github.com/Overland-East-Bay/contact-manager/internal/platform/logging"
	"github.com/Overland-East-Bay/contact-manager/internal/platform/querycache"
)

// cli carries what PersistentPreRunE builds for the subcommands.
type cli struct {
	configPath string
	baseURL    string
	verbose    bool

	cfg    config.ClientConfig
	logger *zap.Logger
	svc    *contacts.Service
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "contacts",
		Short:         "Manage contacts on a contacts service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "contacts service URL (overrides config)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newListCmd(c),
		newGetCmd(c),
		newAddCmd(c),
		newEditCmd(c),
		newDeleteCmd(c),
		newSearchCmd(c),
		newGroupsCmd(),
	)
	return root
}

func (c *cli) init() error {
	cfg, err := config.LoadClientConfig(c.configPath)
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	c.cfg = cfg

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.logger, err = logging.New(level, "console")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	tc, err := transport.New(cfg.BaseURL,
		transport.WithTimeout(cfg.HTTPTimeout.Std()),
		transport.WithLogger(c.logger.Named("transport")),
	)
	if err != nil {
		return err
	}
	cache := querycache.NewStore(platformclock.NewSystemClock(), querycache.WithLogger(c.logger.Named("cache")))

	svc := contacts.NewService(restrepo.NewRepo(tc), cache)
	svc.SetLogger(c.logger.Named("contacts"))
	svc.ListStaleTime = cfg.ListStaleTime.Std()
	svc.DetailStaleTime = cfg.DetailStaleTime.Std()
	svc.Deriver.PageSize = cfg.PageSize
	if err := svc.SetCollation(cfg.Locale); err != nil {
		return err
	}
	c.svc = svc
	return nil
}
