package ads

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter builds a GroupSymbolList from every leaf symbol in sl whose path
// matches the dotted key path, anchored at the start and matched
// case-insensitively. Each element of keys corresponds to one level of the
// hierarchy, e.g.:
//
//	sl.Filter("MAIN", `fbPump\[\d+\]`)
//
// matches every member of every fbPump array element under MAIN. Symbol
// paths carry a leading dot (e.g. ".MAIN.fbPump[0].Speed"), so the
// compiled pattern is dot-prefixed the same way.
func (sl *SymbolList) Filter(keys ...string) (*GroupSymbolList, error) {
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(`\.`)
		b.WriteString(k)
	}

	re, err := regexp.Compile("(?i)^" + b.String())
	if err != nil {
		return nil, fmt.Errorf("ads: invalid filter %v: %w", keys, err)
	}

	g := &GroupSymbolList{byPath: make(map[string]*Symbol)}
	for _, path := range sl.order {
		if re.MatchString(path) {
			s := sl.byPath[path]
			g.entries = append(g.entries, s)
			g.byPath[path] = s
		}
	}

	return g, nil
}
