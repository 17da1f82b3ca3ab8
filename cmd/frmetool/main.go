// frmetool is a CLI utility for inspecting FRME frame files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/frmekit/internal/config"
	"github.com/Faultbox/frmekit/internal/logger"
	"github.com/Faultbox/frmekit/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		logger.Sync()
		if err != errUsage {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
	logger.Sync()
}

// run dispatches one command, writing its report to out.
func run(command string, args []string, out io.Writer) error {
	switch command {
	case "info":
		return cmdInfo(args, out)
	case "widgets", "tree":
		return cmdWidgets(args, out)
	case "models":
		return cmdModels(args, out)
	case "dump":
		return cmdDump(args, out)
	case "varint":
		return cmdVarint(args, out)
	case "config":
		return cmdConfig(args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `frmetool - FRME frame file utility

Usage:
  frmetool <command> [options]

Commands:
  info <file.frme>                 Show version, dependencies and counts
  widgets <file.frme>              Print the widget tree with world positions
  models <file.frme>               Show decoded models, batches and materials
  dump <file.frme>                 Dump the decoded frame
  varint encode|decode <value>...  Encode integers or decode hex varints
  config [path]                    Write the effective config as YAML

Common options:
  --config <file>     Config file (default ./frmetool.yaml)
  --debug             Enable debug logging
  --strict            Fail on unsupported draw primitives
  --log-file <file>   Write logs to a rotated file
  --max-widgets <n>   Reject frames declaring more widgets

Examples:
  frmetool info ui/pause.frme
  frmetool widgets --debug ui/pause.frme
  frmetool varint encode -65 8192
  frmetool varint decode c001`)
}

// setup parses the shared flags plus any command flags, loads the config
// and initializes logging.
func setup(fs *flag.FlagSet, args []string) (*config.Config, error) {
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}

	fileCfg := logger.FileConfig{}
	if cfg.Logging.LogFile != "" {
		fileCfg = logger.FileConfig{
			Path:       cfg.Logging.LogFile,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openFrame parses the file named by the first positional argument.
func openFrame(fs *flag.FlagSet, cfg *config.Config) (*formats.FRME, error) {
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: frmetool %s <file.frme>\n", fs.Name())
		return nil, errUsage
	}
	path := fs.Arg(0)

	logger.Debug("decoding frame", zap.String("path", path))
	f, err := formats.ParseFRMEFile(path,
		formats.WithLogger(logger.Named("frme")),
		formats.WithStrictPrimitives(cfg.Decode.StrictPrimitives),
		formats.WithMaxWidgets(cfg.Decode.MaxWidgets),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("frame decoded", zap.String("path", path), zap.Int("widgets", len(f.Widgets)), zap.Int("models", len(f.Models)))
	return f, nil
}
