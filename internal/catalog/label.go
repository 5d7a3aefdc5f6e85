package catalog

import (
	"fmt"
	"regexp"
	"strconv"
)

const DefaultLabelPrefix = "7.RU"

// LabelMatcher recognises source-boundary records of the form
// <prefix>.<code>.<digits>.
type LabelMatcher struct {
	re *regexp.Regexp
}

type LabelMatch struct {
	Code   string
	Number int
}

func NewLabelMatcher(prefix string) (*LabelMatcher, error) {
	if prefix == "" {
		return nil, fmt.Errorf("label prefix is required")
	}
	re, err := regexp.Compile(`^` + regexp.QuoteMeta(prefix) + `\.([A-Z])\.(\d+)`)
	if err != nil {
		return nil, fmt.Errorf("error compiling label pattern: %w", err)
	}
	return &LabelMatcher{re: re}, nil
}

// Match inspects the first physical line of a record.
func (m *LabelMatcher) Match(line string) (LabelMatch, bool) {
	sub := m.re.FindStringSubmatch(line)
	if sub == nil {
		return LabelMatch{}, false
	}
	n, err := strconv.Atoi(sub[2])
	if err != nil {
		return LabelMatch{}, false
	}
	return LabelMatch{Code: sub[1], Number: n}, true
}
