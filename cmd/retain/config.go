package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/retain/internal/config"
	"github.com/vango-dev/retain/pkg/store"
)

func initCmd(configPath *string) *cobra.Command {
	var (
		driver string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default retain.yaml",
		Long: `Write a retain.yaml holding the default configuration.

Examples:
  retain init
  retain init --store=sqlite
  retain init --store=badger --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configPath
			if path == "" {
				path = config.ConfigFileName
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.New()
			cfg.Store.Driver = driver
			switch driver {
			case "sqlite":
				cfg.Store.Path = "retain.db"
			case "badger":
				cfg.Store.Path = "retain.badger"
			case "s3":
				cfg.Store.Bucket = "retain"
				cfg.Store.Region = "us-east-1"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			success("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "store", config.DefaultDriver, "Store driver: memory, sqlite, badger or s3")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

// loadConfig loads the file named by --config, or ./retain.yaml.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// openStore opens the snapshot store selected by cfg.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.OpenSQLite(ctx, cfg.Path)
	case "badger":
		return store.OpenBadger(store.BadgerConfig{Path: cfg.Path, Logger: logger})
	case "s3":
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store.NewS3Store(client, cfg.Bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// newS3Client builds a client from the default AWS configuration chain
// (environment, shared config files, SSO, instance metadata). A region in
// cfg overrides the chain's; a custom endpoint switches to path-style
// addressing, which S3-compatible services expect.
func newS3Client(ctx context.Context, cfg config.StoreConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
