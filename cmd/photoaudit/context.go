package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"photoaudit/internal/blobs"
	"photoaudit/internal/config"
	"photoaudit/internal/logging"
	"photoaudit/internal/records"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logOnce sync.Once
	logger  *slog.Logger
	logErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.logOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.logger, c.logErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.logErr
}

// clients bundles the Firestore and Storage handles one command run uses.
type clients struct {
	Records *records.Client
	Blobs   *blobs.Client

	fs *firestore.Client
	gs *storage.Client
}

// Close releases both underlying connections.
func (cl *clients) Close() {
	if cl.fs != nil {
		_ = cl.fs.Close()
	}
	if cl.gs != nil {
		_ = cl.gs.Close()
	}
}

// openClients dials Firestore and Storage. An empty bucket falls back to the
// configured one.
func (c *commandContext) openClients(ctx context.Context, bucket string) (*clients, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		bucket = cfg.Firebase.Bucket
	}

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	}

	fs, err := firestore.NewClient(ctx, cfg.Firebase.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to firestore: %w", err)
	}

	gs, err := storage.NewClient(ctx, opts...)
	if err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("connect to storage: %w", err)
	}

	return &clients{
		Records: records.NewClient(fs),
		Blobs:   blobs.NewClient(gs.Bucket(bucket), bucket),
		fs:      fs,
		gs:      gs,
	}, nil
}
