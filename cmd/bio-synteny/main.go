// Command bio-synteny finds synteny blocks between genomes.
package main

import "github.com/grailbio/bio-synteny/cmd/bio-synteny/cmd"

func main() {
	cmd.Run()
}
