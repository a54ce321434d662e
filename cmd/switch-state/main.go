// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/switchagent/lib/codec"
	"github.com/bureau-foundation/switchagent/lib/hostkey"
	"github.com/bureau-foundation/switchagent/lib/process"
	"github.com/bureau-foundation/switchagent/lib/statejournal"
	"github.com/bureau-foundation/switchagent/lib/warmboot"
	"github.com/bureau-foundation/switchagent/lib/version"
)

func main() {
	logger, err := process.NewLogger("warn", "auto")
	if err != nil {
		process.Fatal(err)
	}
	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		process.Fatal(err)
	}
}

type command struct {
	usage string
	run   func(args []string, output io.Writer, logger *slog.Logger) error
}

var commands = map[string]command{
	"show":    {"show <file>", runShow},
	"verify":  {"verify <file>", runVerify},
	"export":  {"export <file>", runExport},
	"diag":    {"diag [--payload] <file>", runDiag},
	"convert": {"convert [--compression C] [--encoding E] <in> <out>", runConvert},
	"keys":    {"keys <next-hop file>", runKeys},
	"journal": {"journal list [--limit N] <db> | journal export <db> <generation>", runJournal},
}

var commandOrder = []string{"show", "verify", "export", "diag", "convert", "keys", "journal"}

func run(args []string, output io.Writer, logger *slog.Logger) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(os.Stderr)
		return nil
	}
	if args[0] == "--version" {
		version.Print("switch-state")
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd.run(args[1:], output, logger)
}

func printUsage(output io.Writer) {
	fmt.Fprintf(output, "switch-state: inspect switch agent warm-boot files and journals.\n\nUsage:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(output, "  switch-state %s\n", commands[name].usage)
	}
}

// parseFlags parses args with flagSet and checks the positional count.
func parseFlags(flagSet *pflag.FlagSet, args []string, positional int) ([]string, error) {
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	rest := flagSet.Args()
	if len(rest) != positional {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", flagSet.Name(), positional, len(rest))
	}
	return rest, nil
}

func runShow(args []string, output io.Writer, logger *slog.Logger) error {
	rest, err := parseFlags(pflag.NewFlagSet("show", pflag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	envelope, err := warmboot.ReadEnvelope(rest[0])
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(output, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "format version\t%d\n", envelope.FormatVersion)
	fmt.Fprintf(writer, "agent version\t%s\n", envelope.AgentVersion)
	fmt.Fprintf(writer, "written at\t%s\n", envelope.WrittenAt.Format("2006-01-02T15:04:05.000Z07:00"))
	fmt.Fprintf(writer, "generation\t%d\n", envelope.Generation)
	fmt.Fprintf(writer, "encoding\t%s\n", envelope.Encoding)
	fmt.Fprintf(writer, "compression\t%s (%d -> %d bytes)\n", envelope.Compression, envelope.UncompressedSize, len(envelope.Payload))
	fmt.Fprintf(writer, "digest\t%s\n", envelope.Digest)
	if err := writer.Flush(); err != nil {
		return err
	}

	state, err := envelope.State(logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "\ndefault vlan %d, %d ports", state.DefaultVlan(), state.Ports().Len())
	if state.QcmConfig() != nil {
		fmt.Fprintf(output, ", qcm configured")
	}
	fmt.Fprintln(output)

	writer = tabwriter.NewWriter(output, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tADMIN\tOPER\tSPEED\tFEC\tVLANS")
	for _, port := range state.Ports().All() {
		fields := port.Get()
		fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			fields.ID, fields.Name, fields.AdminState, fields.OperState, fields.Speed, fields.FEC, len(fields.Vlans))
	}
	return writer.Flush()
}

func runVerify(args []string, output io.Writer, logger *slog.Logger) error {
	rest, err := parseFlags(pflag.NewFlagSet("verify", pflag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	state, err := warmboot.Load(rest[0], logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "%s: ok (%d ports)\n", rest[0], state.Ports().Len())
	return nil
}

func runExport(args []string, output io.Writer, logger *slog.Logger) error {
	rest, err := parseFlags(pflag.NewFlagSet("export", pflag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	state, err := warmboot.Load(rest[0], logger)
	if err != nil {
		return err
	}
	data, err := warmboot.ExportJSON(state)
	if err != nil {
		return err
	}
	_, err = output.Write(data)
	return err
}

func runDiag(args []string, output io.Writer, _ *slog.Logger) error {
	var payload bool
	flagSet := pflag.NewFlagSet("diag", pflag.ContinueOnError)
	flagSet.BoolVar(&payload, "payload", false, "diagnose the decompressed payload instead of the envelope")
	rest, err := parseFlags(flagSet, args, 1)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(rest[0])
	if err != nil {
		return err
	}
	if payload {
		envelope, err := warmboot.DecodeEnvelope(data)
		if err != nil {
			return err
		}
		if envelope.Encoding != warmboot.EncodingCBOR {
			return fmt.Errorf("payload is %s, not CBOR; use export", envelope.Encoding)
		}
		persisted, err := envelope.PersistedState()
		if err != nil {
			return err
		}
		if data, err = codec.Marshal(persisted); err != nil {
			return err
		}
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(output, notation)
	return nil
}

func runConvert(args []string, output io.Writer, logger *slog.Logger) error {
	var compressionName, encodingName string
	flagSet := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	flagSet.StringVar(&compressionName, "compression", string(warmboot.CompressionZstd), "zstd, lz4, or none")
	flagSet.StringVar(&encodingName, "encoding", string(warmboot.EncodingCBOR), "cbor or json")
	rest, err := parseFlags(flagSet, args, 2)
	if err != nil {
		return err
	}
	compression, err := warmboot.ParseCompression(compressionName)
	if err != nil {
		return err
	}
	encoding, err := warmboot.ParseEncoding(encodingName)
	if err != nil {
		return err
	}

	envelope, err := warmboot.ReadEnvelope(rest[0])
	if err != nil {
		return err
	}
	state, err := envelope.State(logger)
	if err != nil {
		return err
	}
	err = warmboot.Save(rest[1], state, warmboot.Options{
		Compression: compression,
		Encoding:    encoding,
		Generation:  envelope.Generation,
		WrittenAt:   envelope.WrittenAt,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(output, "wrote %s (%s, %s)\n", rest[1], encoding, compression)
	return nil
}

func runKeys(args []string, output io.Writer, _ *slog.Logger) error {
	rest, err := parseFlags(pflag.NewFlagSet("keys", pflag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}
	file, err := hostkey.LoadNextHops(rest[0])
	if err != nil {
		return err
	}
	keys, err := file.DeriveAll()
	if err != nil {
		return err
	}
	for key := range keys.All() {
		fmt.Fprintln(output, key)
	}
	return nil
}

func runJournal(args []string, output io.Writer, logger *slog.Logger) error {
	if len(args) == 0 {
		return errors.New("journal: expected list or export")
	}
	switch args[0] {
	case "list":
		return runJournalList(args[1:], output, logger)
	case "export":
		return runJournalExport(args[1:], output, logger)
	default:
		return fmt.Errorf("journal: unknown subcommand %q", args[0])
	}
}

func openJournal(path string, logger *slog.Logger) (*statejournal.Journal, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return statejournal.Open(statejournal.Config{Path: path, PoolSize: 1, Logger: logger})
}

func runJournalList(args []string, output io.Writer, logger *slog.Logger) error {
	var limit int
	flagSet := pflag.NewFlagSet("journal list", pflag.ContinueOnError)
	flagSet.IntVar(&limit, "limit", 20, "maximum number of generations (0 for all)")
	rest, err := parseFlags(flagSet, args, 1)
	if err != nil {
		return err
	}
	journal, err := openJournal(rest[0], logger)
	if err != nil {
		return err
	}
	defer journal.Close()

	entries, err := journal.List(context.Background(), limit)
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(output, 2, 0, 3, ' ', 0)
	fmt.Fprintln(writer, "GENERATION\tPUBLISHED\tPORTS\tCOMPRESSION\tDIGEST")
	for _, entry := range entries {
		fmt.Fprintf(writer, "%d\t%s\t%d\t%s\t%.16s\n",
			entry.Generation, entry.PublishedAt.Format("2006-01-02T15:04:05.000Z07:00"),
			entry.PortCount, entry.Compression, entry.Digest)
	}
	return writer.Flush()
}

func runJournalExport(args []string, output io.Writer, logger *slog.Logger) error {
	rest, err := parseFlags(pflag.NewFlagSet("journal export", pflag.ContinueOnError), args, 2)
	if err != nil {
		return err
	}
	generation, err := strconv.ParseUint(rest[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid generation %q: %w", rest[1], err)
	}
	journal, err := openJournal(rest[0], logger)
	if err != nil {
		return err
	}
	defer journal.Close()

	state, err := journal.Load(context.Background(), generation, logger)
	if err != nil {
		return err
	}
	data, err := warmboot.ExportJSON(state)
	if err != nil {
		return err
	}
	_, err = output.Write(data)
	return err
}
