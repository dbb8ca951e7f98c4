package insts

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseTrace reads a micro-op trace. Each non-empty line has the form
//
//	<pc> <op> <dst|-> [src ...] [@addr] [taken|nottaken] [->target]
//
// where registers are written x0-x31 and everything after '#' is a comment.
func ParseTrace(r io.Reader) ([]Instruction, error) {
	var trace []Instruction

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		inst, err := parseLine(fields)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", lineNum, err)
		}
		trace = append(trace, inst)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return trace, nil
}

func parseLine(fields []string) (Instruction, error) {
	inst := Instruction{Dst: NoReg}

	if len(fields) < 3 {
		return inst, fmt.Errorf("expected at least pc, op and destination, got %q",
			strings.Join(fields, " "))
	}

	pc, err := strconv.ParseUint(fields[0], 0, 64)
	if err != nil {
		return inst, fmt.Errorf("bad pc %q: %w", fields[0], err)
	}
	inst.PC = pc

	op, ok := ParseOp(fields[1])
	if !ok {
		return inst, fmt.Errorf("unknown op %q", fields[1])
	}
	inst.Op = op

	if fields[2] != "-" {
		dst, err := parseReg(fields[2])
		if err != nil {
			return inst, err
		}
		inst.Dst = dst
	}

	hasAddr := false
	hasOutcome := false
	for _, f := range fields[3:] {
		switch {
		case strings.HasPrefix(f, "@"):
			addr, err := strconv.ParseUint(f[1:], 0, 64)
			if err != nil {
				return inst, fmt.Errorf("bad address %q: %w", f, err)
			}
			inst.Addr = addr
			hasAddr = true
		case strings.HasPrefix(f, "->"):
			target, err := strconv.ParseUint(f[2:], 0, 64)
			if err != nil {
				return inst, fmt.Errorf("bad target %q: %w", f, err)
			}
			inst.Target = target
		case f == "taken" || f == "nottaken":
			inst.Taken = f == "taken"
			hasOutcome = true
		default:
			src, err := parseReg(f)
			if err != nil {
				return inst, err
			}
			if len(inst.Srcs) == MaxSrcs {
				return inst, fmt.Errorf("more than %d source registers", MaxSrcs)
			}
			inst.Srcs = append(inst.Srcs, src)
		}
	}

	if inst.IsMemory() && !hasAddr {
		return inst, fmt.Errorf("%s without @address", inst.Op)
	}

	if inst.IsBranch() && !hasOutcome {
		return inst, fmt.Errorf("branch without taken/nottaken outcome")
	}

	if inst.Op == OpStore && inst.HasDst() {
		return inst, fmt.Errorf("store with destination x%d", inst.Dst)
	}

	return inst, nil
}

func parseReg(s string) (uint8, error) {
	if !strings.HasPrefix(s, "x") {
		return 0, fmt.Errorf("bad register %q", s)
	}

	n, err := strconv.ParseUint(s[1:], 10, 8)
	if err != nil || n >= NumArchRegs {
		return 0, fmt.Errorf("bad register %q", s)
	}

	return uint8(n), nil
}

// WriteTrace writes micro-ops in the format ParseTrace reads.
func WriteTrace(w io.Writer, trace []Instruction) error {
	for i := range trace {
		if _, err := fmt.Fprintln(w, trace[i].String()); err != nil {
			return fmt.Errorf("failed to write trace: %w", err)
		}
	}
	return nil
}
