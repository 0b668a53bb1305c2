// Package trace reads memory-access traces that drive a cache model. A
// trace is a plain-text file with one reference per line:
//
//	<kind> <address> [size]
//
// where kind is L or R for a load, S or W for a store, address is parsed
// with Go conventions (0x prefix for hexadecimal), and size defaults to 1.
// Blank lines and lines starting with # are skipped.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/dcachesim/cache"
)

// An Access is one memory reference read from a trace.
type Access struct {
	Kind    cache.AccessKind
	Address uint64
	Size    uint32
}

// A Reader parses accesses out of a trace stream.
type Reader struct {
	scanner *bufio.Scanner
	lineNum int
}

// NewReader returns a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Read returns the next access in the trace. It returns io.EOF after the
// last access.
func (r *Reader) Read() (Access, error) {
	for r.scanner.Scan() {
		r.lineNum++

		line := strings.TrimSpace(r.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		return r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return Access{}, err
	}

	return Access{}, io.EOF
}

// ReadAll returns all remaining accesses in the trace.
func (r *Reader) ReadAll() ([]Access, error) {
	var accesses []Access

	for {
		access, err := r.Read()
		if err == io.EOF {
			return accesses, nil
		}

		if err != nil {
			return nil, err
		}

		accesses = append(accesses, access)
	}
}

func (r *Reader) parseLine(line string) (Access, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 3 {
		return Access{}, fmt.Errorf(
			"trace line %d: expected \"<kind> <address> [size]\", got %q",
			r.lineNum, line)
	}

	kind, err := parseKind(fields[0])
	if err != nil {
		return Access{}, fmt.Errorf("trace line %d: %w", r.lineNum, err)
	}

	addr, err := strconv.ParseUint(fields[1], 0, 64)
	if err != nil {
		return Access{}, fmt.Errorf(
			"trace line %d: bad address %q", r.lineNum, fields[1])
	}

	size := uint64(1)
	if len(fields) == 3 {
		size, err = strconv.ParseUint(fields[2], 0, 32)
		if err != nil || size < 1 {
			return Access{}, fmt.Errorf(
				"trace line %d: bad size %q", r.lineNum, fields[2])
		}
	}

	return Access{Kind: kind, Address: addr, Size: uint32(size)}, nil
}

func parseKind(field string) (cache.AccessKind, error) {
	switch strings.ToUpper(field) {
	case "L", "R":
		return cache.AccessLoad, nil
	case "S", "W":
		return cache.AccessStore, nil
	default:
		return 0, fmt.Errorf("unknown access kind %q", field)
	}
}
