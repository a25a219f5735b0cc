package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"findimg/config"
	"findimg/imageprocessor"
	"findimg/logging"
	"findimg/prompt"
	"findimg/search"
	"findimg/signalhandler"
	"findimg/utils"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const longHelp = `Find images similar to a given reference image using a perceptual hashing algorithm.
May work even if the search target (or the reference) is cropped, resized, rotated,
color-manipulated, etc.

Try decreasing sensitivity and increasing distance if you can't find what you are
searching for.

Searched extensions: `

const examples = `  Find images similar to ref.png inside /home/user directory.
  $ findimg /home/user/ref.png /home/user

  Find images similar to ref.png inside /home/user directory, excluding "excludeme" and "skipthis" directories.
  $ findimg --exclude excludeme,skipthis /home/user/ref.png /home/user`

type cliFlags struct {
	sensitivity int
	distance    int
	exclude     string
	debug       bool
	logFile     string
	configPath  string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:           "findimg [flags] REFERENCE DIRECTORY",
		Short:         "Find images similar to a reference image",
		Long:          longHelp + strings.Join(imageprocessor.GetSupportedExtensions(), " "),
		Example:       examples,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, &flags, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.IntVarP(&flags.sensitivity, "sensitivity", "s", int(imageprocessor.DefaultSensitivity),
		fmt.Sprintf("Hashing sensitivity (%d - %d)", imageprocessor.MinSensitivity, imageprocessor.MaxSensitivity))
	f.IntVarP(&flags.distance, "distance", "d", 0, "Max. Hamming distance")
	f.StringVarP(&flags.exclude, "exclude", "e", "", "Directories to exclude from search (a comma-separated list)")
	f.BoolVar(&flags.debug, "debug", false, "Output debug messages")
	f.StringVar(&flags.logFile, "logfile", "", "Also write the log to this file (rotated daily)")
	f.StringVar(&flags.configPath, "config", "", "Path to a TOML config file")

	return cmd
}

// loadConfig merges the config file and environment with explicitly set flags
func loadConfig(cmd *cobra.Command, flags *cliFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("sensitivity") {
		cfg.Sensitivity = flags.sensitivity
	}
	if f.Changed("distance") {
		cfg.Distance = flags.distance
	}
	if f.Changed("exclude") {
		cfg.Exclude = utils.ParseExcludeList(flags.exclude)
	}
	if f.Changed("debug") {
		cfg.Debug = flags.debug
	}
	if f.Changed("logfile") {
		cfg.LogFile = flags.logFile
	}
	return cfg, nil
}

func runSearch(cmd *cobra.Command, flags *cliFlags, reference, directory string) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	if err := logging.SetupLogger(logging.Options{Debug: cfg.Debug, LogFile: cfg.LogFile, Output: cmd.ErrOrStderr()}); err != nil {
		return err
	}
	defer logging.CloseLogger()

	if err := utils.CheckInputs(reference, directory); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.DebugLog("Config: sensitivity=%d distance=%d exclude=%q", cfg.Sensitivity, cfg.Distance, cfg.Exclude)

	ctx, stop := signalhandler.SetupHandler(cmd.Context())
	defer stop()

	showProgress := isatty.IsTerminal(os.Stderr.Fd())
	state, err := search.Run(ctx, search.SearchOptions{
		Reference:   reference,
		Root:        directory,
		Exclude:     cfg.Exclude,
		Sensitivity: imageprocessor.Sensitivity(cfg.Sensitivity),
		MaxDistance: cfg.Distance,
		Prompter:    prompt.New(os.Stdin, cmd.OutOrStdout()),
		Reporter:    search.NewConsoleReporter(cmd.OutOrStdout(), cmd.ErrOrStderr(), showProgress),
	})
	if err != nil {
		return err
	}

	logging.DebugLog("Search finished (%s)", state.StopReason)
	return nil
}
