package seeker

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/uorlab/primeseek/internal/chunk"
)

// WriteProgram writes a chunk program in the exchange format: one decimal
// chunk per line, with a disassembly comment after each value.
func WriteProgram(w io.Writer, chunks []*big.Int) error {
	bw := bufio.NewWriter(w)
	for addr, c := range chunks {
		if _, err := fmt.Fprintf(bw, "%s # %04d: %s\n", c.String(), addr, chunk.Describe(c)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadProgram parses the exchange format, ignoring blank lines and anything
// after a # on each line.
func ReadProgram(r io.Reader) ([]*big.Int, error) {
	var chunks []*big.Int
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		c, ok := new(big.Int).SetString(text, 10)
		if !ok {
			return nil, fmt.Errorf("seeker: line %d: not a chunk value: %q", line, text)
		}
		chunks = append(chunks, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("seeker: empty program")
	}
	return chunks, nil
}

// SaveProgram writes a program to a file path.
func SaveProgram(path string, chunks []*big.Int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteProgram(f, chunks); err != nil {
		return err
	}
	return f.Close()
}

// LoadProgram reads a program from a file path.
func LoadProgram(path string) ([]*big.Int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadProgram(f)
}
