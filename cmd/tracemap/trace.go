package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gopherjs/tracemap"
)

func traceCommand(debug *bool) *cobra.Command {
	var (
		line   int
		column int
		source string
		all    bool
		bias   string
	)

	cmd := &cobra.Command{
		Use:   "trace <map.json>",
		Short: "Look up a position in a source map",
		Long: `Look up a position in a source map.

Without --source, maps a generated position back to the original source.
With --source, maps an original position forward to the generated file;
--all lists every generated position produced from the original one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			m, err := tracemap.New(data, args[0])
			if err != nil {
				return err
			}
			if *debug {
				decoded, err := m.DecodedMappings()
				if err != nil {
					return err
				}
				log.Debug(spew.Sdump(decoded))
			}
			b, err := parseBias(bias)
			if err != nil {
				return err
			}

			if source == "" {
				pos, err := m.OriginalPositionFor(tracemap.Needle{Line: line, Column: column, Bias: b})
				if err != nil {
					return err
				}
				if pos == nil {
					fmt.Println("no mapping")
					return nil
				}
				fmt.Printf("%s:%d:%d", pos.Source, pos.Line, pos.Column)
				if pos.Name != "" {
					fmt.Printf(" (%s)", pos.Name)
				}
				fmt.Println()
				return nil
			}

			needle := tracemap.SourceNeedle{Source: source, Line: line, Column: column, Bias: b}
			if all {
				positions, err := m.AllGeneratedPositionsFor(needle)
				if err != nil {
					return err
				}
				if len(positions) == 0 {
					fmt.Println("no mapping")
					return nil
				}
				for _, pos := range positions {
					fmt.Printf("%d:%d\n", pos.Line, pos.Column)
				}
				return nil
			}
			pos, err := m.GeneratedPositionFor(needle)
			if err != nil {
				return err
			}
			if pos == nil {
				fmt.Println("no mapping")
				return nil
			}
			fmt.Printf("%d:%d\n", pos.Line, pos.Column)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.IntVarP(&line, "line", "l", 1, "1-based line to look up")
	fs.IntVarP(&column, "column", "c", 0, "0-based column to look up")
	fs.StringVarP(&source, "source", "s", "", "original source to look up in (flips query direction)")
	fs.BoolVar(&all, "all", false, "with --source, list every matching generated position")
	addBiasFlag(fs, &bias)
	return cmd
}
