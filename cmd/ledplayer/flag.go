package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/ledplayer/pkg/buildvars"
	"github.com/xaionaro-go/ledplayer/pkg/cliflags"
	"github.com/xaionaro-go/ledplayer/pkg/config"
)

type Flags struct {
	*cliflags.Common
	Config       config.Config
	LoggerLevel  logger.Level
	StreamOutput string
	Videos       []string
}

func usage(fs *pflag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <video>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n%s", fs.FlagUsages())
	}
}

func parseFlags(args []string) Flags {
	ctx := context.TODO()

	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.Usage = usage(fs)
	common := cliflags.Register(fs)
	streamOutput := fs.StringP("stream-output", "O", "", "output to a stream file instead of the display")
	repeatSeconds := fs.Float64P("repeat", "r", 0, "repeat for at least this many seconds")
	streamCompression := fs.String("stream-compression", "", "zstd level for the stream file: none, fastest, default, better or best")

	err := fs.Parse(args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if common.Version {
		assertNoError(ctx, buildvars.PrintBuildInfo(os.Stdout))
		os.Exit(0)
	}

	flags := Flags{
		Common:       common,
		StreamOutput: *streamOutput,
		Videos:       fs.Args(),
	}

	flags.LoggerLevel, err = common.LoggerLevel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flags.Config, err = common.Config()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if common.Changed("repeat") {
		flags.Config.Playback.RepeatSeconds = *repeatSeconds
	}
	if common.Changed("stream-compression") {
		flags.Config.Stream.Compression = *streamCompression
	}
	if common.SaveConfig {
		saveConfigAndExit(common, flags.Config)
	}

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Expected video filename.")
		fs.Usage()
		os.Exit(1)
	}
	if flags.StreamOutput != "" {
		// the geometry is still needed, but nothing is shown
		flags.Config.Display.Backend = config.DisplayBackendNull
		flags.Config.Matrix.RefreshRate = 0
	}
	if err := flags.Config.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return flags
}

func (f Flags) RepeatDuration() time.Duration {
	return f.Config.Playback.RepeatDuration()
}

func saveConfigAndExit(common *cliflags.Common, cfg config.Config) {
	path, err := common.Save(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "saved the configuration to '%s'\n", path)
	os.Exit(0)
}
