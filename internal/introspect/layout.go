package introspect

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/solatis/datastreamer/internal/types"
)

// Layout renders one line per leaf, numeric leaves first:
//
//	numeric root.c[1] float64 path=[2 1] kinds=[structure array]
func (ix *Index) Layout() []string {
	lines := make([]string, 0, ix.Len())
	for _, l := range ix.Numeric {
		lines = append(lines, layoutLine("numeric", l))
	}
	for _, l := range ix.Strings {
		lines = append(lines, layoutLine("string", l))
	}
	return lines
}

func layoutLine(list string, l types.Leaf) string {
	kinds := make([]string, len(l.Kinds))
	for i, k := range l.Kinds {
		kinds[i] = k.String()
	}
	return fmt.Sprintf("%s %s %s path=%v kinds=[%s]", list, l.Name, l.Kind, l.Path, strings.Join(kinds, " "))
}

// DiffLayouts returns a unified diff between two leaf layouts, empty when
// they are identical.
func DiffLayouts(from, to *Index, fromName, toName string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withNewlines(from.Layout()),
		B:        withNewlines(to.Layout()),
		FromFile: fromName,
		ToFile:   toName,
		Context:  2,
	})
}

func withNewlines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
