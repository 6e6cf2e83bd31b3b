package domain

import "strings"

// BusyMap maps a teaching period to the merged titles of external events occupying it.
type BusyMap map[Period]string

// BusyTitleSeparator joins several events that share a period.
const BusyTitleSeparator = " & "

// MergeBusyTitles joins titles per period in the order they were collected.
func MergeBusyTitles(titles map[Period][]string) BusyMap {
	out := make(BusyMap, len(titles))
	for p, list := range titles {
		if len(list) == 0 {
			continue
		}
		out[p] = strings.Join(list, BusyTitleSeparator)
	}
	return out
}
