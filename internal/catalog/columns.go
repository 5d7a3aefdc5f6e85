// Package catalog reads the fixed-column source catalog. Each logical
// record spans two physical lines; a field's text is the trimmed slice of
// the first line followed by the trimmed slice of the second.
package catalog

type Field int

const (
	FieldLabel Field = iota
	FieldLatitude
	FieldLongitude
	FieldMagnitude
	FieldRate
	FieldMinDepth
	FieldMaxDepth
	FieldAzimuth
	FieldDip1
	FieldDip1Sigma
	FieldDip2
	FieldDip2Sigma
	FieldLength
	numFields
)

// span is a half-open, 0-indexed column range.
type span struct {
	from, to int
}

// The same ranges apply to both physical lines. dip2σ and length overlap
// by one column; the layout is kept as found in the published files.
var columns = [numFields]span{
	FieldLabel:     {0, 8},
	FieldLatitude:  {9, 13},
	FieldLongitude: {14, 19},
	FieldMagnitude: {20, 22},
	FieldRate:      {23, 31},
	FieldMinDepth:  {33, 36},
	FieldMaxDepth:  {37, 40},
	FieldAzimuth:   {42, 46},
	FieldDip1:      {47, 51},
	FieldDip1Sigma: {52, 55},
	FieldDip2:      {56, 60},
	FieldDip2Sigma: {60, 64},
	FieldLength:    {63, 65},
}

var fieldNames = [numFields]string{
	"label", "latitude", "longitude", "magnitude", "rate", "min_depth",
	"max_depth", "azimuth", "dip1", "dip1_sigma", "dip2", "dip2_sigma", "length",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

// slice returns line[from:to] clamped to the line length.
func (s span) slice(line string) string {
	if s.from >= len(line) {
		return ""
	}
	to := s.to
	if to > len(line) {
		to = len(line)
	}
	return line[s.from:to]
}

// Columns returns the column range of a field.
func Columns(f Field) (from, to int) {
	s := columns[f]
	return s.from, s.to
}
