package cli

import (
	"context"
	"fmt"

	"github.com/smnkrgr/AtomicActions/internal/atomic"
	"github.com/smnkrgr/AtomicActions/internal/config"
	"github.com/smnkrgr/AtomicActions/internal/event"
	"github.com/smnkrgr/AtomicActions/internal/install"
)

func installAtomics(ctx context.Context, console *event.Console) error {
	cfg, err := config.Load(workDir, logPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return installInto(ctx, console, cfg)
}

func installInto(ctx context.Context, console *event.Console, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	inst := &install.Installer{
		URL:        cfg.ArchiveURL,
		AtomicsDir: cfg.ArchiveAtomicsDir,
		Progress:   func(msg string) { console.Info("%s", msg) },
	}
	if err := inst.Install(ctx, cfg.OfficialTestsPath); err != nil {
		console.Error("Installation failed: %v", err)
		return err
	}

	ids, err := atomic.DiscoverTechniqueIDs([]string{cfg.OfficialTestsPath})
	if err != nil {
		return fmt.Errorf("failed to list installed techniques: %w", err)
	}
	console.Success("Installed %d technique(s) into %s", len(ids), cfg.OfficialTestsPath)
	return nil
}
