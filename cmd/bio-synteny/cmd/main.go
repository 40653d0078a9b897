// Package cmd implements the bio-synteny CLI: a thin collaborator over
// package synteny that reads FASTA input, runs graph simplification and
// synteny-block generation, and writes the results in a fixed textual
// format. The engine itself (package synteny) has no notion of files,
// flags, or output formatting; all of that lives here.
package cmd

import (
	"fmt"
	"log"

	"github.com/grailbio/base/cmdutil"
	"v.io/x/lib/cmdline"
)

func newCmdBlocks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "blocks",
		Short:    "Find synteny blocks across one or more FASTA genomes",
		ArgsName: "fasta...",
	}
	kFlag := cmd.Flags.Int("k", 30, "k-mer length used for bifurcation enumeration")
	minSizeFlag := cmd.Flags.Int("min-size", 100, "minimum block length to report")
	minBranchFlag := cmd.Flags.Int("min-branch-size", 50, "maximum internal length of a bulge eligible for collapse")
	maxIterFlag := cmd.Flags.Int("max-iterations", 4, "maximum number of simplification passes")
	sharedOnlyFlag := cmd.Flags.Bool("shared-only", false, "only report blocks present exactly once in every input chromosome")
	noSimplifyFlag := cmd.Flags.Bool("no-simplify", false, "skip graph simplification and report blocks over the raw bifurcation graph")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("blocks takes one or more FASTA paths, but got none")
		}
		return runBlocks(argv, blocksOpts{
			k:             *kFlag,
			minSize:       *minSizeFlag,
			minBranchSize: *minBranchFlag,
			maxIterations: *maxIterFlag,
			sharedOnly:    *sharedOnlyFlag,
			skipSimplify:  *noSimplifyFlag,
		})
	})
	return cmd
}

func newCmdGraph() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "graph",
		Short:    "Dump the bifurcation graph for one or more FASTA genomes",
		ArgsName: "fasta...",
	}
	kFlag := cmd.Flags.Int("k", 30, "k-mer length used for bifurcation enumeration")
	condensedFlag := cmd.Flags.Bool("condensed", false, "simplify the graph before dumping it")
	minBranchFlag := cmd.Flags.Int("min-branch-size", 50, "maximum internal length of a bulge eligible for collapse (condensed mode only)")
	maxIterFlag := cmd.Flags.Int("max-iterations", 4, "maximum number of simplification passes (condensed mode only)")
	outFlag := cmd.Flags.String("out", "", "output path; defaults to stdout")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("graph takes one or more FASTA paths, but got none")
		}
		return runGraph(argv, graphOpts{
			k:             *kFlag,
			condensed:     *condensedFlag,
			minBranchSize: *minBranchFlag,
			maxIterations: *maxIterFlag,
			outPath:       *outFlag,
		})
	})
	return cmd
}

func newCmdIndex() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "index",
		Short:    "Generate a samtools-faidx-compatible index for a FASTA file",
		ArgsName: "fasta",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("index takes exactly one FASTA path, but got %v", argv)
		}
		return runIndex(argv[0])
	})
	return cmd
}

// Run parses arguments and dispatches to a subcommand.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-synteny",
			Short:    "Find synteny blocks between genomes via a compacted de Bruijn graph",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdBlocks(),
				newCmdGraph(),
				newCmdIndex(),
			},
		})
}
