package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/smnkrgr/AtomicActions/internal/config"
	"github.com/smnkrgr/AtomicActions/internal/event"
	"github.com/smnkrgr/AtomicActions/internal/install"
)

const exclusionsHeader = "guid,comment\n"

// setupWorkspace creates the workspace layout and installs the official
// atomic tests into it.
func setupWorkspace(ctx context.Context, console *event.Console) error {
	cfg, err := config.Load(workDir, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := prepareWorkspace(cfg); err != nil {
		return err
	}
	console.Success("Workspace ready in %s", cfg.WorkDir)

	return installInto(ctx, console, cfg)
}

// prepareWorkspace creates the workspace directories and an empty exclusion
// list. Existing files are left alone.
func prepareWorkspace(cfg *config.Config) error {
	for _, dir := range cfg.Directories() {
		if err := config.EnsureDir(dir); err != nil {
			return &install.IOError{Op: "create", Path: dir, Err: err}
		}
	}

	_, err := os.Stat(cfg.ExclusionsPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return &install.IOError{Op: "stat", Path: cfg.ExclusionsPath, Err: err}
	}
	if err := os.WriteFile(cfg.ExclusionsPath, []byte(exclusionsHeader), 0644); err != nil {
		return &install.IOError{Op: "write", Path: cfg.ExclusionsPath, Err: err}
	}
	return nil
}
