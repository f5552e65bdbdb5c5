package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MismatchError reports the first line where execution diverged from a
// reference log.
type MismatchError struct {
	Line     int
	Field    string
	Expected string
	Actual   string

	ExpectedLine string
	ActualLine   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("line %d: %s is %s, expected %s\n  expected: %s\n  actual:   %s",
		e.Line, e.Field, e.Actual, e.Expected, e.ExpectedLine, e.ActualLine)
}

// traceRecord is the register state at the start of one logged instruction.
type traceRecord struct {
	PC        uint16
	A, X, Y   uint8
	P, SP     uint8
	Cycles    uint64
	hasCycles bool
}

// CompareLog steps the session once per line of a nestest-style log and
// checks PC, A, X, Y, P, SP and, when the log has it, CYC before each
// instruction. Extra columns such as PPU are ignored. A limit of zero or
// less compares the whole log. It returns the number of matching lines.
func CompareLog(s *Session, expected io.Reader, limit int) (int, error) {
	scanner := bufio.NewScanner(expected)
	matched := 0

	for line := 1; scanner.Scan(); line++ {
		if limit > 0 && matched >= limit {
			break
		}
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		want, err := parseTraceLine(text)
		if err != nil {
			return matched, fmt.Errorf("line %d: %w", line, err)
		}

		for s.Bus.IsDMAInProgress() {
			s.Bus.Step()
		}
		if err := compareRecord(line, want, s, text); err != nil {
			return matched, err
		}

		matched++
		s.Bus.Step()
	}
	if err := scanner.Err(); err != nil {
		return matched, fmt.Errorf("reading reference log: %w", err)
	}
	return matched, nil
}

func compareRecord(line int, want traceRecord, s *Session, text string) error {
	c := s.Bus.CPU
	mismatch := func(field string, expected, actual string) error {
		return &MismatchError{
			Line:         line,
			Field:        field,
			Expected:     expected,
			Actual:       actual,
			ExpectedLine: text,
			ActualLine:   c.Trace(s.Bus.Memory.Peek),
		}
	}

	if c.PC != want.PC {
		return mismatch("PC", fmt.Sprintf("%04X", want.PC), fmt.Sprintf("%04X", c.PC))
	}
	registers := []struct {
		name      string
		want, got uint8
	}{
		{"A", want.A, c.A},
		{"X", want.X, c.X},
		{"Y", want.Y, c.Y},
		{"P", want.P, c.GetStatusByte()},
		{"SP", want.SP, c.SP},
	}
	for _, r := range registers {
		if r.want != r.got {
			return mismatch(r.name, fmt.Sprintf("%02X", r.want), fmt.Sprintf("%02X", r.got))
		}
	}
	if want.hasCycles && want.Cycles != c.Cycles() {
		return mismatch("CYC", strconv.FormatUint(want.Cycles, 10), strconv.FormatUint(c.Cycles(), 10))
	}
	return nil
}

// parseTraceLine reads the PC from the first column and the registers from
// the "A:.. X:.. Y:.. P:.. SP:.." section.
func parseTraceLine(text string) (traceRecord, error) {
	var rec traceRecord

	if len(text) < 4 {
		return rec, fmt.Errorf("short trace line %q", text)
	}
	pc, err := strconv.ParseUint(text[:4], 16, 16)
	if err != nil {
		return rec, fmt.Errorf("bad PC column %q: %w", text[:4], err)
	}
	rec.PC = uint16(pc)

	start := strings.Index(text, " A:")
	if start < 0 {
		return rec, fmt.Errorf("no register columns in %q", text)
	}

	seen := 0
	for _, field := range strings.Fields(text[start:]) {
		name, value, ok := strings.Cut(field, ":")
		if !ok || value == "" {
			continue
		}
		if name == "CYC" {
			if rec.Cycles, err = strconv.ParseUint(value, 10, 64); err != nil {
				return rec, fmt.Errorf("bad CYC column %q: %w", value, err)
			}
			rec.hasCycles = true
			continue
		}

		var target *uint8
		switch name {
		case "A":
			target = &rec.A
		case "X":
			target = &rec.X
		case "Y":
			target = &rec.Y
		case "P":
			target = &rec.P
		case "SP":
			target = &rec.SP
		default:
			continue
		}
		v, err := strconv.ParseUint(value, 16, 8)
		if err != nil {
			return rec, fmt.Errorf("bad %s column %q: %w", name, value, err)
		}
		*target = uint8(v)
		seen++
	}
	if seen != 5 {
		return rec, fmt.Errorf("incomplete register columns in %q", text)
	}
	return rec, nil
}
