// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/switchagent/lib/clock"
	"github.com/bureau-foundation/switchagent/lib/config"
	"github.com/bureau-foundation/switchagent/lib/stateupdate"
	"github.com/bureau-foundation/switchagent/lib/statejournal"
	"github.com/bureau-foundation/switchagent/lib/switchconfig"
	"github.com/bureau-foundation/switchagent/lib/switchstate"
	"github.com/bureau-foundation/switchagent/lib/warmboot"
)

type agentConfig struct {
	Config   *config.Config
	Clock    clock.Clock
	Logger   *slog.Logger
	ColdBoot bool
}

// agent wires the state holder, the update loop, the journal and the
// warm-boot file together for one process lifetime.
type agent struct {
	config   *config.Config
	clock    clock.Clock
	logger   *slog.Logger
	coldBoot bool

	holder  *switchstate.Holder
	updater *stateupdate.Updater
	journal *statejournal.Journal

	warmBootOptions  warmboot.Options
	snapshotInterval time.Duration

	// lastSaved is the generation most recently written to the
	// warm-boot file. Only the snapshot loop and shutdown touch it.
	lastSaved uint64
	saved     bool

	// running is closed once startup finished and the main loop began.
	running chan struct{}
}

func newAgent(cfg agentConfig) (*agent, error) {
	compression, err := warmboot.ParseCompression(cfg.Config.WarmBoot.Compression)
	if err != nil {
		return nil, fmt.Errorf("warm_boot.compression: %w", err)
	}
	encoding, err := warmboot.ParseEncoding(cfg.Config.WarmBoot.Encoding)
	if err != nil {
		return nil, fmt.Errorf("warm_boot.encoding: %w", err)
	}
	interval, err := cfg.Config.SnapshotInterval()
	if err != nil {
		return nil, err
	}
	return &agent{
		config:           cfg.Config,
		clock:            cfg.Clock,
		logger:           cfg.Logger,
		coldBoot:         cfg.ColdBoot,
		holder:           switchstate.NewHolder(cfg.Clock),
		warmBootOptions:  warmboot.Options{Compression: compression, Encoding: encoding},
		snapshotInterval: interval,
		running:          make(chan struct{}),
	}, nil
}

// run blocks until ctx is cancelled. reload delivers a value whenever
// the switch configuration should be reapplied.
func (a *agent) run(ctx context.Context, reload <-chan os.Signal) error {
	if a.config.WarmBoot.Enabled {
		lock, err := warmboot.Lock(a.config.Paths.State)
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	restored, lastGeneration, err := a.restore()
	if err != nil {
		return err
	}

	if a.config.Journal.Enabled {
		a.journal, err = statejournal.Open(statejournal.Config{
			Path:     a.config.Paths.Journal,
			Keep:     a.config.Journal.Keep,
			PoolSize: a.config.Journal.PoolSize,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		defer a.journal.Close()

		latest, found, err := a.journal.Latest(ctx)
		if err != nil {
			return fmt.Errorf("reading latest journal entry: %w", err)
		}
		if found && latest.Generation > lastGeneration {
			lastGeneration = latest.Generation
		}
	}
	if lastGeneration > 0 {
		a.logger.Info("continuing generation numbering", "last_generation", lastGeneration)
	}
	a.holder = switchstate.NewHolderAt(a.clock, lastGeneration)

	updaterConfig := stateupdate.Config{
		Holder:     a.holder,
		QueueDepth: a.config.Updates.QueueDepth,
		Logger:     a.logger,
	}
	if a.journal != nil {
		updaterConfig.Journal = a.journal
	}
	a.updater = stateupdate.New(updaterConfig)

	updaterContext, stopUpdater := context.WithCancel(context.Background())
	defer stopUpdater()
	go a.updater.Run(updaterContext)

	events := a.updater.Subscribe(0)
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		a.watchEvents(events)
	}()

	if restored != nil {
		result, err := a.updater.Submit(ctx, "warm boot restore", func(state **switchstate.SwitchState) error {
			*state = restored
			return nil
		})
		if err != nil {
			return fmt.Errorf("publishing restored state: %w", err)
		}
		a.logger.Info("warm boot state published",
			"generation", result.Generation,
			"ports", restored.Ports().Len(),
		)
	}

	if err := a.applySwitchConfig(ctx); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		a.logger.Warn("switch configuration file missing, keeping current state",
			"path", a.config.Paths.SwitchConfig,
		)
	}

	a.logger.Info("switch agent running",
		"generation", a.holder.Snapshot().Generation,
		"warm_boot", a.config.WarmBoot.Enabled,
		"journal", a.config.Journal.Enabled,
	)
	close(a.running)
	a.loop(ctx, reload)
	a.logger.Info("shutting down")

	stopUpdater()
	<-a.updater.Done()
	<-watcherDone

	if a.config.WarmBoot.Enabled {
		if err := a.snapshot(); err != nil {
			return fmt.Errorf("final warm boot snapshot: %w", err)
		}
	}
	return nil
}

// restore loads the warm-boot file and returns the state with the
// generation it was saved at. A missing file or --cold-boot returns nil
// state and no error.
func (a *agent) restore() (*switchstate.SwitchState, uint64, error) {
	if !a.config.WarmBoot.Enabled {
		return nil, 0, nil
	}
	path := warmboot.Path(a.config.Paths.State)
	if a.coldBoot {
		a.logger.Warn("cold boot requested, ignoring warm boot file", "path", path)
		return nil, 0, nil
	}

	envelope, err := warmboot.ReadEnvelope(path)
	if errors.Is(err, os.ErrNotExist) {
		a.logger.Info("no warm boot file, starting cold", "path", path)
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading warm boot file: %w", err)
	}
	state, err := envelope.State(a.logger)
	if err != nil {
		return nil, 0, fmt.Errorf("restoring warm boot file %s: %w", path, err)
	}
	a.logger.Info("warm boot file loaded",
		"path", path,
		"written_at", envelope.WrittenAt,
		"written_by", envelope.AgentVersion,
		"generation", envelope.Generation,
		"ports", state.Ports().Len(),
	)
	return state, envelope.Generation, nil
}

func (a *agent) applySwitchConfig(ctx context.Context) error {
	switchConfig, err := switchconfig.Load(a.config.Paths.SwitchConfig)
	if err != nil {
		return err
	}
	result, err := a.updater.Submit(ctx, "apply switch config", func(state **switchstate.SwitchState) error {
		return switchstate.ApplyConfig(state, switchConfig, a.logger)
	})
	if err != nil {
		return err
	}
	a.logger.Info("switch configuration applied",
		"path", a.config.Paths.SwitchConfig,
		"published", result.Published,
		"generation", result.Generation,
	)
	return nil
}

func (a *agent) loop(ctx context.Context, reload <-chan os.Signal) {
	var ticks <-chan time.Time
	if a.config.WarmBoot.Enabled && a.snapshotInterval > 0 {
		ticker := a.clock.NewTicker(a.snapshotInterval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-reload:
			if err := a.applySwitchConfig(ctx); err != nil {
				a.logger.Error("reapplying switch configuration failed", "error", err)
			}
		case <-ticks:
			if err := a.snapshot(); err != nil {
				a.logger.Error("periodic warm boot snapshot failed", "error", err)
			}
		}
	}
}

// snapshot writes the current generation to the warm-boot file unless
// that generation was already written.
func (a *agent) snapshot() error {
	current := a.holder.Snapshot()
	if a.saved && current.Generation == a.lastSaved {
		return nil
	}
	options := a.warmBootOptions
	options.Generation = current.Generation
	options.WrittenAt = a.clock.Now()

	path := warmboot.Path(a.config.Paths.State)
	if err := warmboot.Save(path, current.State, options); err != nil {
		return err
	}
	a.lastSaved = current.Generation
	a.saved = true
	a.logger.Info("warm boot snapshot written",
		"path", path,
		"generation", current.Generation,
	)
	return nil
}

// watchEvents logs what each generation changed. This is the hand-off
// point to the hardware programming layer.
func (a *agent) watchEvents(subscription *stateupdate.Subscription) {
	for event := range subscription.Events {
		if subscription.Resync() {
			a.logger.Warn("state events dropped, hardware layer must resync",
				"generation", event.Generation,
			)
		}
		delta := event.Delta
		a.logger.Debug("state delta",
			"generation", event.Generation,
			"update", event.Update,
			"added_ports", len(delta.AddedPorts),
			"removed_ports", len(delta.RemovedPorts),
			"changed_ports", len(delta.ChangedPorts),
			"qcm_changed", delta.QcmChanged,
			"default_vlan_changed", delta.Old.DefaultVlan() != delta.New.DefaultVlan(),
		)
	}
}
