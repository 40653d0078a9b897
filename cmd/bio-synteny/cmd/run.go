package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/encoding/fasta"
	"github.com/grailbio/bio-synteny/synteny"
)

type blocksOpts struct {
	k             int
	minSize       int
	minBranchSize int
	maxIterations int
	sharedOnly    bool
	skipSimplify  bool
}

type graphOpts struct {
	k             int
	condensed     bool
	minBranchSize int
	maxIterations int
	outPath       string
}

// loadAllChromosomes reads every path in order and concatenates their
// chromosome records, renumbering ids densely across all inputs so a
// multi-genome run (one FASTA per species, say) addresses every
// sequence uniquely.
func loadAllChromosomes(ctx context.Context, paths []string) ([]dnaseq.Chromosome, error) {
	var all []dnaseq.Chromosome
	for _, p := range paths {
		f, err := file.Open(ctx, p)
		if err != nil {
			return nil, errors.Wrapf(err, "bio-synteny: open %s", p)
		}
		chrs, err := fasta.Read(f.Reader(ctx))
		closeErr := f.Close(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "bio-synteny: read %s", p)
		}
		if closeErr != nil {
			return nil, errors.Wrapf(closeErr, "bio-synteny: close %s", p)
		}
		for _, c := range chrs {
			c.ID = uint32(len(all))
			all = append(all, c)
		}
	}
	return all, nil
}

func runBlocks(paths []string, opts blocksOpts) error {
	ctx := context.Background()
	chrs, err := loadAllChromosomes(ctx, paths)
	if err != nil {
		return err
	}

	bf, err := synteny.New(chrs)
	if err != nil {
		return errors.Wrap(err, "bio-synteny: build engine")
	}

	progress := func(pass int, state synteny.ProgressState) {
		if state == synteny.StateStart {
			log.Debug.Printf("bio-synteny: simplification pass %d starting", pass)
		}
	}

	if !opts.skipSimplify {
		if err := bf.PerformGraphSimplifications(opts.k, opts.minBranchSize, opts.maxIterations, progress); err != nil {
			return errors.Wrap(err, "bio-synteny: simplify")
		}
	}

	blocks, err := bf.GenerateSyntenyBlocks(opts.k, opts.minSize, opts.sharedOnly, progress)
	if err != nil {
		return errors.Wrap(err, "bio-synteny: generate blocks")
	}

	fmt.Println("#chr\tstart\tend\tsignedBlockId")
	for _, b := range blocks {
		fmt.Println(synteny.FormatBlock(b))
	}
	return nil
}

func runGraph(paths []string, opts graphOpts) (err error) {
	ctx := context.Background()
	chrs, err := loadAllChromosomes(ctx, paths)
	if err != nil {
		return err
	}

	bf, buildErr := synteny.New(chrs)
	if buildErr != nil {
		return errors.Wrap(buildErr, "bio-synteny: build engine")
	}

	var w io.Writer = os.Stdout
	if opts.outPath != "" {
		dst, createErr := file.Create(ctx, opts.outPath)
		if createErr != nil {
			return errors.Wrapf(createErr, "bio-synteny: create %s", opts.outPath)
		}
		defer file.CloseAndReport(ctx, dst, &err)
		w = dst.Writer(ctx)
	}

	if opts.condensed {
		if err := bf.PerformGraphSimplifications(opts.k, opts.minBranchSize, opts.maxIterations, nil); err != nil {
			return errors.Wrap(err, "bio-synteny: simplify")
		}
	}
	return bf.SerializeGraph(opts.k, w)
}

func runIndex(path string) (err error) {
	ctx := context.Background()
	src, err := file.Open(ctx, path)
	if err != nil {
		return errors.Wrapf(err, "bio-synteny: open %s", path)
	}
	defer file.CloseAndReport(ctx, src, &err)
	return fasta.GenerateIndex(os.Stdout, src.Reader(ctx))
}
