// Command seekview disassembles a saved goal-seeker program file.
// Usage: go run ./cmd/seekview <program-file>
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/uorlab/primeseek/internal/chunk"
	"github.com/uorlab/primeseek/internal/seeker"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: seekview <program-file>")
	}

	chunks, err := seeker.LoadProgram(os.Args[1])
	if err != nil {
		log.Fatalf("load %s: %v", os.Args[1], err)
	}

	fmt.Printf("%s: %d chunks\n\n", os.Args[1], len(chunks))
	for addr, c := range chunks {
		fmt.Printf("%04d: %-24s %s\n", addr, chunk.Describe(c), c.String())
	}
}
