package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/ledplayer/pkg/buildvars"
	"github.com/xaionaro-go/ledplayer/pkg/cliflags"
	"github.com/xaionaro-go/ledplayer/pkg/config"
)

type Flags struct {
	*cliflags.Common
	Config      config.Config
	LoggerLevel logger.Level
	Loop        bool
	StreamFile  string
}

func parseFlags(args []string) Flags {
	fs := pflag.NewFlagSet(args[0], pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [options] <streamfile>\n", args[0])
		fmt.Fprintf(os.Stderr, "Options:\n%s", fs.FlagUsages())
	}
	common := cliflags.Register(fs)
	loop := fs.Bool("loop", false, "start over at the end of the stream")

	err := fs.Parse(args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if common.Version {
		assertNoError(context.TODO(), buildvars.PrintBuildInfo(os.Stdout))
		os.Exit(0)
	}

	flags := Flags{
		Common:     common,
		Loop:       *loop,
		StreamFile: fs.Arg(0),
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
	if common.SaveConfig {
		saveConfigAndExit(common, flags.Config)
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Expected exactly one stream file.")
		fs.Usage()
		os.Exit(1)
	}

	return flags
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
