package sheets

import (
	"slices"
	"strings"

	"lapkeu/internal/core"
)

func sortStable(list []core.Transaction) {
	slices.SortStableFunc(list, func(a, b core.Transaction) int {
		az, bz := a.Date.IsZero(), b.Date.IsZero()
		switch {
		case az && bz:
			return 0
		case az:
			return 1
		case bz:
			return -1
		}
		if c := a.Date.Compare(b.Date.Time); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func escapeTitle(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
