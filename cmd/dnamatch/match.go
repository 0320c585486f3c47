package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/dnamatch/pkg/config"
	"github.com/orneryd/dnamatch/pkg/dnarange"
	"github.com/orneryd/dnamatch/pkg/logger"
	"github.com/orneryd/dnamatch/pkg/match"
	"github.com/orneryd/dnamatch/pkg/metrics"
	"github.com/orneryd/dnamatch/pkg/pedigree"
	"github.com/orneryd/dnamatch/pkg/render"
)

func newMatchCmd() *cobra.Command {
	matchCmd := &cobra.Command{
		Use:   "match [records-file] id,cM [id,cM...]",
		Short: "Find the people matching every tester",
		Long: `Find the people whose expected shared-DNA range contains the value
reported by every tester.

The records file (.json, .yaml or .yml) comes first unless --from-store is
given, in which case the most recently imported pedigree is used. The result
is written to stdout (or --output) as Graphviz DOT or JSON; diagnostics go
to stderr.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMatch,
	}
	f := matchCmd.Flags()
	f.Int("max-results", match.DefaultMaxResults, "Fail when this many or more people match")
	f.Int("min-testers", match.DefaultMinTesters, "Fewest testers worth computing")
	f.Int("smallest-match", match.DefaultSmallestMatch, "At least one tester must share more cM than this")
	f.String("id-item", "xref", `How testers are located: "xref", "type.<event>" or a tag name`)
	f.String("nearest", "first", `Shared ancestor choice: "first" or "minimum"`)
	f.String("orientation", config.DefaultOrientation, "DOT orientation: tb, lr, bt or rl")
	f.Bool("reverse-arrows", false, "Point DOT arrows from family to child")
	f.Bool("show-each", false, "Log every tester's own matches")
	f.String("format", "dot", "Output format: dot or json")
	f.StringP("output", "o", "", "Write the result to this file instead of stdout")
	f.Bool("from-store", false, "Use the latest imported pedigree")
	f.String("metrics-file", "", "Write run metrics to this Prometheus textfile")
	return matchCmd
}

// applyMatchFlags copies explicitly set match flags over the config. setup
// runs for every command, so flags the command does not define are skipped.
func applyMatchFlags(cmd *cobra.Command, c *config.Config) error {
	f := cmd.Flags()
	changed := func(name string) bool {
		fl := f.Lookup(name)
		return fl != nil && fl.Changed
	}

	ints := map[string]*int{
		"max-results":    &c.Match.MaxResults,
		"min-testers":    &c.Match.MinTesters,
		"smallest-match": &c.Match.SmallestMatch,
	}
	for name, dst := range ints {
		if !changed(name) {
			continue
		}
		v, err := f.GetInt(name)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = v
	}

	strs := map[string]*string{
		"id-item":      &c.Match.IDItem,
		"nearest":      &c.Match.Nearest,
		"orientation":  &c.Output.Orientation,
		"format":       &c.Output.Format,
		"metrics-file": &c.Metrics.TextfilePath,
	}
	for name, dst := range strs {
		if changed(name) {
			*dst, _ = f.GetString(name)
		}
	}

	bools := map[string]*bool{
		"reverse-arrows": &c.Output.ReverseArrows,
		"show-each":      &c.Output.ShowEach,
	}
	for name, dst := range bools {
		if changed(name) {
			*dst, _ = f.GetBool(name)
		}
	}
	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fromStore, _ := cmd.Flags().GetBool("from-store")
	outPath, _ := cmd.Flags().GetString("output")

	var (
		p   *pedigree.Pedigree
		err error
	)
	if fromStore {
		p, err = loadFromStore(ctx)
	} else {
		if len(args) < 2 {
			return fmt.Errorf("need a records file followed by tester entries")
		}
		p, err = pedigree.LoadFile(args[0])
		args = args[1:]
	}
	if err != nil {
		return err
	}
	if verr := p.Validate(); verr != nil {
		logger.Warn("pedigree has dangling references", "err", verr)
	}

	opts, err := cfg.MatchOptions()
	if err != nil {
		return err
	}

	rec := metrics.New()
	engine := match.NewEngine(p, nil, dnarange.Default(), opts)
	result, events, runErr := engine.Run(ctx, args)
	rec.ObserveRun(result, runErr)
	if len(events) > 0 {
		logger.With("run_id", events[0].RunID)
	}
	logEvents(p, events, cfg.Output.ShowEach)

	if cfg.Metrics.TextfilePath != "" {
		if err := rec.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("metrics not written", "err", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("match finished",
		"candidates", len(result.Candidates),
		"path_families", len(result.PathFamilies),
		"index_build", result.IndexBuild)

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		file, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	switch cfg.Output.Format {
	case "json":
		return render.JSON(out, p, result)
	default:
		return render.DOT(out, p, result, render.Options{
			Orientation:   cfg.Output.Orientation,
			ReverseArrows: cfg.Output.ReverseArrows,
		})
	}
}

func personInfo(p *pedigree.Pedigree, id pedigree.IndividualID) string {
	indi, err := p.Individual(id)
	if err != nil {
		return string(id)
	}
	return fmt.Sprintf("%s %s", indi.ID, indi.DisplayName())
}

// logEvents turns engine diagnostics into log lines.
func logEvents(p *pedigree.Pedigree, events []match.Event, showEach bool) {
	for _, ev := range events {
		switch ev.Type {
		case match.EventTesterRejected:
			logger.Error("tester rejected", "problem", ev.Message)
		case match.EventTesterMatches:
			log := logger.Debug
			if showEach {
				log = logger.Info
			}
			log("within range",
				"tester", personInfo(p, ev.Tester.ID), "cm", ev.Tester.CM, "matches", ev.Count)
			for _, c := range ev.Candidates {
				log("  candidate", "person", personInfo(p, c.ID), "relationship", c.Relationship.Label)
			}
		case match.EventIntersection:
			logger.Info("intersection of matches", "people", ev.Count)
		case match.EventFailure:
			kv := []any{"kind", ev.Kind, "message", ev.Message}
			for _, d := range ev.Details {
				kv = append(kv, "detail", d)
			}
			logger.Error("run failed", kv...)
		}
	}
}
