// Package fasta reads FASTA-formatted genome input into the synteny
// engine's chromosome record type.
// See http://www.htslib.org/doc/faidx.html. Briefly, FASTA files consist of a
// number of named sequences that may be interrupted by newlines. For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'. Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/grailbio/bio-synteny/biosimd"
	"github.com/grailbio/bio-synteny/dnaseq"
)

const (
	mib            = 1024 * 1024
	bufferInitSize = 64 * mib
)

type opts struct {
	Clean bool
}

// Opt is an optional argument to Read.
type Opt func(*opts)

// OptClean specifies returned sequences should be cleaned as described in
// biosimd.CleanASCIISeqInplace. Read always cleans (the engine requires a
// validated DNA alphabet), so OptClean is accepted for call-site parity
// with the wider FASTA-reading convention but has no additional effect.
func OptClean(o *opts) { o.Clean = true }

func makeOpts(userOpts ...Opt) opts {
	var parsedOpts opts
	for _, userOpt := range userOpts {
		userOpt(&parsedOpts)
	}
	return parsedOpts
}

// Read parses every record in r into a dnaseq.Chromosome, in order of
// appearance, assigning ids 0, 1, 2, ... Sequences are always cleaned in
// place (case-normalized, unrecognized characters mapped to 'N') so the
// result satisfies dnaseq.Validate's alphabet requirement.
func Read(r io.Reader, userOpts ...Opt) ([]dnaseq.Chromosome, error) {
	makeOpts(userOpts...) // reserved for future non-default cleaning behavior
	var chrs []dnaseq.Chromosome
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)

	var description string
	var seq strings.Builder
	flush := func() {
		if description == "" && seq.Len() == 0 {
			return
		}
		b := []byte(seq.String())
		biosimd.CleanASCIISeqInplace(b)
		chrs = append(chrs, dnaseq.Chromosome{
			ID:          uint32(len(chrs)),
			Description: description,
			Sequence:    b,
		})
		seq.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			flush()
			description = strings.Split(line[1:], " ")[0]
		} else {
			seq.WriteString(line)
		}
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	flush()

	if len(chrs) == 0 {
		return nil, errors.Errorf("fasta: no sequences found")
	}
	return chrs, nil
}
