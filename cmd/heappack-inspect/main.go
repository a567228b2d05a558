// Copyright 2026 The Heappack Authors
// SPDX-License-Identifier: Apache-2.0

// heappack-inspect examines serialization records on disk without
// decoding them: it prints the embedded fingerprints and payload
// size, converts records between the text and binary encodings, and
// checks whether a record was produced by a given binary.
//
// Usage:
//
//	heappack-inspect [flags] <record-file>
//
// Inspection performs structural parsing only. Converting or dumping
// a record produced by another binary works fine; only --check
// compares fingerprints, and nothing is ever reconstructed.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/heappack/heappack/lib/binident"
	"github.com/heappack/heappack/lib/packet"
	"github.com/heappack/heappack/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var convertPath string
	var format string
	var check bool
	var words bool

	flagSet := pflag.NewFlagSet("heappack-inspect", pflag.ContinueOnError)
	flagSet.StringVar(&convertPath, "convert", "", "re-encode the record and write it to this path")
	flagSet.StringVar(&format, "format", "", "target encoding for --convert: text or binary (default: the other one)")
	flagSet.BoolVar(&check, "check", false, "fail unless the record was produced by this binary")
	flagSet.BoolVar(&words, "words", false, "dump the payload words")
	flagSet.BoolP("help", "h", false, "show help")

	// Handle --version before flag parsing to match other heappack
	// binaries.
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("heappack-inspect")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	logLevel := slog.LevelInfo
	if os.Getenv("HEAPPACK_DEBUG") != "" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	args := flagSet.Args()
	if len(args) != 1 {
		printHelp(flagSet)
		return fmt.Errorf("expected exactly one record file, got %d arguments", len(args))
	}
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := packet.Inspect(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("parsed record",
		"path", path,
		"encoding", info.Encoding.String(),
		"words", len(info.Words),
	)

	if convertPath != "" {
		return convert(info, data, convertPath, format, logger)
	}
	if check {
		return checkProducer(info)
	}

	fmt.Printf("encoding: %s\n", info.Encoding)
	fmt.Printf("program:  %s\n", info.Program)
	fmt.Printf("type:     %s\n", info.Type)
	fmt.Printf("words:    %d\n", len(info.Words))
	if words {
		for i, word := range info.Words {
			fmt.Printf("%6d: 0x%016x\n", i, word)
		}
	}
	return nil
}

// convert re-encodes the record into the requested encoding. With no
// explicit --format it flips to the other encoding.
func convert(info *packet.RecordInfo, data []byte, outPath, format string, logger *slog.Logger) error {
	var target packet.Encoding
	switch format {
	case "text":
		target = packet.EncodingText
	case "binary":
		target = packet.EncodingBinary
	case "":
		if info.Encoding == packet.EncodingText {
			target = packet.EncodingBinary
		} else {
			target = packet.EncodingText
		}
	default:
		return fmt.Errorf("unknown format %q (want text or binary)", format)
	}

	converted, err := packet.Transcode(data, target)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, converted, 0o644); err != nil {
		return err
	}
	logger.Info("converted record",
		"to", target.String(),
		"path", outPath,
		"bytes", len(converted),
	)
	return nil
}

// checkProducer compares the record's program fingerprint against the
// running binary's.
func checkProducer(info *packet.RecordInfo) error {
	current, err := binident.Current()
	if err != nil {
		return err
	}
	if info.Program != current {
		return fmt.Errorf("record was produced by binary %s, this binary is %s",
			info.Program, current)
	}
	fmt.Println("record was produced by this binary")
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Print(`heappack-inspect - Examine serialization records

USAGE
    heappack-inspect [flags] <record-file>

With no flags, prints the record's encoding, fingerprints, and word
count. Records in either encoding are auto-detected.

FLAGS
`)
	fmt.Print(flagSet.FlagUsages())
}
