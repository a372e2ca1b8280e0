package paging

import "strings"

// Direction is a normalized sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// NormalizeOrder maps "asc" in any case to Asc and everything else, including
// the empty string, to Desc.
func NormalizeOrder(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}
