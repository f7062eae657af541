/*enzoref resolves refinement regions, flags cells for refinement and runs
the grid maintenance steps that go with them on synthetic grids. Run
"enzoref example-config" for a documented parameter file.
*/
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phil-mansfield/enzoref/cosmo"
	"github.com/phil-mansfield/enzoref/flagging"
	"github.com/phil-mansfield/enzoref/history"
	"github.com/phil-mansfield/enzoref/io"
	"github.com/phil-mansfield/enzoref/particles"
	"github.com/phil-mansfield/enzoref/regions"
)

var (
	verbose     bool
	metricsFile string
	// running is set once argument parsing succeeds.
	running bool

	log      = logrus.New()
	registry = prometheus.NewRegistry()
)

// externalErrors can be fixed by changing parameters or input files.
var externalErrors = []error{
	io.ErrConfig, regions.ErrInvalidTrack, regions.ErrTemporalRange,
	cosmo.ErrOutOfTable, history.ErrNotFound, flagging.ErrNoMethod,
	particles.ErrBudget, os.ErrNotExist,
}

var root = &cobra.Command{
	Use:   "enzoref",
	Short: "Refinement regions and cell flagging for AMR grids.",
	Long: `enzoref reads a gcfg parameter file describing refinement
methods, static regions and evolving region tracks. Its subcommands resolve
the regions over time, flag cells on synthetic grids, and run the bounds
enforcer, particle splitter and shock tube initializer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		running = true
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if metricsFile == "" {
			return nil
		}
		return prometheus.WriteToTextfile(metricsFile, registry)
	},
}

func init() {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Print debug-level log records.")
	root.PersistentFlags().StringVar(&metricsFile, "metrics", "",
		"Write Prometheus metrics to this file after the command finishes.")

	root.AddCommand(
		exampleConfigCmd, checkCmd, evolveCmd, flagCmd, boundsCmd,
		splitCmd, shockTubeCmd, feedbackCmd, convertTracksCmd, historyCmd,
	)
}

func main() {
	if err := root.Execute(); err != nil {
		if !running || isExternal(err) {
			external(err)
		}
		internal(err)
	}
}

func isExternal(err error) bool {
	for _, target := range externalErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// external reports an error that the user can fix and exits.
func external(err error) {
	log.Errorf("enzoref exited early with the following error:\n%s", err)
	os.Exit(1)
}

// internal reports an error that needs a code dive to fix, along with a
// stack trace, and exits.
func internal(err error) {
	log.Error("enzoref exited early with the following error:")
	fmt.Fprintf(os.Stderr, "%s\n\n", err)
	debug.PrintStack()
	os.Exit(2)
}
