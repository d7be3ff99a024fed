package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mediadex/internal/config"
	"mediadex/internal/index"
	"mediadex/internal/logging"
	"mediadex/internal/scanner"
)

type commandContext struct {
	configFlag *string
	verbosity  *int

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, verbosity *int) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbosity:  verbosity,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		count := 0
		if c.verbosity != nil {
			count = *c.verbosity
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg, logging.VerbosityLevel(count))
	})
	return c.logger, c.loggerErr
}

// withStore opens the configured index under the writer lock and closes both
// when fn returns.
func (c *commandContext) withStore(fn func(*config.Config, *slog.Logger, index.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock, err := scanner.AcquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			logger.Warn("release index lock failed",
				logging.Error(relErr),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, fmt.Sprintf("remove %s if no mediadex process is running", cfg.LockPath())),
			)
		}
	}()

	store, err := index.Open(cfg)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer store.Close()

	return fn(cfg, logger, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
