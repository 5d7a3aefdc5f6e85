package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Record is one logical catalog entry.
type Record struct {
	Line1  string
	Line2  string
	Number int // physical line number of Line1, 1-based
}

// Raw returns the field text of both lines, each trimmed, concatenated.
func (r Record) Raw(f Field) string {
	s := columns[f]
	return strings.TrimSpace(s.slice(r.Line1)) + strings.TrimSpace(s.slice(r.Line2))
}

// Float returns the normalized numeric value of a field, if present.
func (r Record) Float(f Field) (float64, bool) {
	return ParseNumber(r.Raw(f))
}

// Label returns the concatenated label columns of both lines.
func (r Record) Label() string {
	return r.Raw(FieldLabel)
}

// Scanner reads records as consecutive pairs of physical lines. A trailing
// unpaired line is ignored.
type Scanner struct {
	sc     *bufio.Scanner
	rec    Record
	line   int
	err    error
	orphan bool
}

func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Scanner{sc: sc}
}

// Scan advances to the next record.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	l1, ok := s.next()
	if !ok {
		return false
	}
	first := s.line
	l2, ok := s.next()
	if !ok {
		s.orphan = true
		return false
	}
	s.rec = Record{Line1: l1, Line2: l2, Number: first}
	return true
}

func (s *Scanner) next() (string, bool) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			s.err = fmt.Errorf("error reading catalog at line %d: %w", s.line+1, err)
		}
		return "", false
	}
	s.line++
	return strings.TrimRight(s.sc.Text(), "\r"), true
}

func (s *Scanner) Record() Record { return s.rec }

func (s *Scanner) Err() error { return s.err }

// Orphaned reports whether input ended with an unpaired line.
func (s *Scanner) Orphaned() bool { return s.orphan }
