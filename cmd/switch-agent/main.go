// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/switchagent/lib/clock"
	"github.com/bureau-foundation/switchagent/lib/config"
	"github.com/bureau-foundation/switchagent/lib/process"
	"github.com/bureau-foundation/switchagent/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath       string
		switchConfigPath string
		coldBoot         bool
		showVersion      bool
	)

	flagSet := pflag.NewFlagSet("switch-agent", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "runtime configuration file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&switchConfigPath, "switch-config", "", "switch configuration file (overrides paths.switch_config)")
	flagSet.BoolVar(&coldBoot, "cold-boot", false, "ignore any existing warm-boot file")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if showVersion {
		version.Print("switch-agent")
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if switchConfigPath != "" {
		cfg.Paths.SwitchConfig = switchConfigPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger, err := process.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	logger = logger.With("environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	agent, err := newAgent(agentConfig{
		Config:   cfg,
		Clock:    clock.Real(),
		Logger:   logger,
		ColdBoot: coldBoot,
	})
	if err != nil {
		return err
	}
	return agent.run(ctx, reload)
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `switch-agent: control-plane state manager of a switch.

Restores the warm-boot state file, applies the switch configuration,
and keeps the published state snapshotted until shutdown.

Usage:
  switch-agent [flags]

Signals:
  SIGHUP           reapply the switch configuration file
  SIGINT, SIGTERM  stop and write a final warm-boot snapshot

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
