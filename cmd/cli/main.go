package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanishpuri/chordmatch/internal/config"
	"github.com/himanishpuri/chordmatch/pkg/chordmatch"
	"github.com/himanishpuri/chordmatch/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

// app carries the resolved settings shared by every subcommand.
type app struct {
	v        *viper.Viper
	settings config.Settings
}

// createService creates a new ChordMatch service with configured options
func (a *app) createService() (chordmatch.Service, error) {
	return chordmatch.NewService(
		chordmatch.WithCorpusPath(a.settings.CorpusPath),
		chordmatch.WithDBPath(a.settings.DBPath),
		chordmatch.WithWorkers(a.settings.Workers),
		chordmatch.WithLogger(logger.GetLogger()),
	)
}

func newRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "chordmatch",
		Short:         "Find songs you can play with the chords you know",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.settings = settings
			configureLogger(settings)
			logger.GetLogger().Debugf("Executing command: %s", cmd.Name())
			return nil
		},
	}

	if err := config.BindCommonFlags(root.PersistentFlags(), a.v); err != nil {
		panic(err)
	}

	root.AddCommand(
		recommendCommand(a),
		songCommand(a),
		genresCommand(a),
		statsCommand(a),
		rateCommand(a),
		extractCommand(),
	)
	return root
}

func configureLogger(settings config.Settings) {
	if level, err := logger.ParseLevel(settings.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if settings.LogFormat == "json" {
		logger.GetLogger().SetJSON(true)
	}
}

func printBanner(w io.Writer) {
	banner := `
  ____ _                   _ __  __       _       _
 / ___| |__   ___  _ __ __| |  \/  | __ _| |_ ___| |__
| |   | '_ \ / _ \| '__/ _' | |\/| |/ _' | __/ __| '_ \
| |___| | | | (_) | | | (_| | |  | | (_| | || (__| | | |
 \____|_| |_|\___/|_|  \__,_|_|  |_|\__,_|\__\___|_| |_|

        Songs you can play with the chords you know
`
	fmt.Fprintln(w, banner)
}
