// Package catalogtest builds fixed-column catalog text for tests.
package catalogtest

import (
	"fmt"
	"strings"

	"github.com/mr1hm/go-seismic-sources/internal/catalog"
)

// Pair is one logical record under construction.
type Pair struct {
	l1, l2 []byte
}

func NewPair() *Pair { return &Pair{} }

// Set writes text into a field. Text wider than the field continues in the
// same columns of the second line.
func (p *Pair) Set(f catalog.Field, text string) *Pair {
	from, to := catalog.Columns(f)
	width := to - from
	head, tail := text, ""
	if len(text) > width {
		head, tail = text[:width], text[width:]
	}
	p.l1 = put(p.l1, from, head)
	if tail != "" {
		p.l2 = put(p.l2, from, tail)
	}
	return p
}

// SetLine2 writes text into a field of the second line only.
func (p *Pair) SetLine2(f catalog.Field, text string) *Pair {
	from, _ := catalog.Columns(f)
	p.l2 = put(p.l2, from, text)
	return p
}

func (p *Pair) Lines() (string, string) {
	return strings.TrimRight(string(p.l1), " "), strings.TrimRight(string(p.l2), " ")
}

func put(buf []byte, at int, text string) []byte {
	for len(buf) < at+len(text) {
		buf = append(buf, ' ')
	}
	copy(buf[at:], text)
	return buf
}

// Builder accumulates records into catalog text.
type Builder struct {
	Prefix string
	lines  []string
}

func New() *Builder {
	return &Builder{Prefix: catalog.DefaultLabelPrefix}
}

func (b *Builder) Add(p *Pair) *Builder {
	l1, l2 := p.Lines()
	b.lines = append(b.lines, l1, l2)
	return b
}

// Label starts a new source block; code is "D" or "L".
func (b *Builder) Label(code string, n int) *Builder {
	p := NewPair()
	p.l1 = put(p.l1, 0, fmt.Sprintf("%s.%s.%d", b.Prefix, code, n))
	return b.Add(p)
}

func (b *Builder) Vertex(lat, lon string) *Builder {
	return b.Add(NewPair().Set(catalog.FieldLatitude, lat).Set(catalog.FieldLongitude, lon))
}

func (b *Builder) Rate(mag, rate string) *Builder {
	return b.Add(NewPair().Set(catalog.FieldMagnitude, mag).Set(catalog.FieldRate, rate))
}

func (b *Builder) Depths(minDepth, maxDepth string) *Builder {
	p := NewPair()
	if minDepth != "" {
		p.Set(catalog.FieldMinDepth, minDepth)
	}
	if maxDepth != "" {
		p.Set(catalog.FieldMaxDepth, maxDepth)
	}
	return b.Add(p)
}

func (b *Builder) Dips(dip1, dip2 string) *Builder {
	p := NewPair()
	if dip1 != "" {
		p.Set(catalog.FieldDip1, dip1)
	}
	if dip2 != "" {
		p.Set(catalog.FieldDip2, dip2)
	}
	return b.Add(p)
}

func (b *Builder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}
