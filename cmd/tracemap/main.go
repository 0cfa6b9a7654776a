// Command tracemap queries and composes source maps from the command
// line: trace a position through a map, or flatten a chain of maps into
// one.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gopherjs/tracemap"
)

func main() {
	var verbose, debug bool

	root := &cobra.Command{
		Use:           "tracemap",
		Short:         "Trace and remap source map positions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose || debug {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "dump decoded structures while working")

	root.AddCommand(traceCommand(&debug))
	root.AddCommand(remapCommand())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// addBiasFlag registers the shared --bias flag on a command's flag set.
func addBiasFlag(fs *pflag.FlagSet, bias *string) {
	fs.StringVar(bias, "bias", "glb", `bias for positions between mappings: "glb" or "lub"`)
}

func parseBias(s string) (tracemap.Bias, error) {
	switch s {
	case "glb", "":
		return tracemap.GreatestLowerBound, nil
	case "lub":
		return tracemap.LeastUpperBound, nil
	}
	return 0, errBias(s)
}

type errBias string

func (e errBias) Error() string {
	return `invalid --bias ` + string(e) + `, expected "glb" or "lub"`
}
