package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joshuapare/emurs/kernel/mem"
)

// scriptOp is one line of an allocation script:
//
//	alloc <name> <size> [align]
//	free  <name>
type scriptOp struct {
	Line   int
	Kind   string
	Name   string
	Layout mem.Layout
}

func parseScript(r io.Reader, defaultAlign uint64) ([]scriptOp, error) {
	var ops []scriptOp
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		op := scriptOp{Line: lineNo, Kind: strings.ToLower(fields[0])}
		switch op.Kind {
		case "alloc":
			if len(fields) < 3 || len(fields) > 4 {
				return nil, fmt.Errorf("line %d: usage: alloc <name> <size> [align]", lineNo)
			}
			size, err := strconv.ParseUint(fields[2], 0, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid size %q", lineNo, fields[2])
			}
			align := defaultAlign
			if len(fields) == 4 {
				if align, err = strconv.ParseUint(fields[3], 0, 64); err != nil {
					return nil, fmt.Errorf("line %d: invalid align %q", lineNo, fields[3])
				}
			}
			op.Layout, err = mem.NewLayout(uintptr(size), uintptr(align))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		case "free":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: usage: free <name>", lineNo)
			}
		default:
			return nil, fmt.Errorf("line %d: unknown operation %q", lineNo, fields[0])
		}
		op.Name = fields[1]
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// parseAllocSpec parses SIZE or SIZE:ALIGN.
func parseAllocSpec(s string, defaultAlign uint64) (mem.Layout, error) {
	sizeStr, alignStr, hasAlign := strings.Cut(s, ":")
	size, err := strconv.ParseUint(sizeStr, 0, 64)
	if err != nil {
		return mem.Layout{}, fmt.Errorf("invalid size %q", sizeStr)
	}
	align := defaultAlign
	if hasAlign {
		if align, err = strconv.ParseUint(alignStr, 0, 64); err != nil {
			return mem.Layout{}, fmt.Errorf("invalid align %q", alignStr)
		}
	}
	return mem.NewLayout(uintptr(size), uintptr(align))
}
