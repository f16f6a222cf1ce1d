// Package weekday maps Gregorian dates onto the clinic business week,
// which starts on Saturday. Index 0 is Saturday, 6 is Friday.
//
// Every schedule lookup, holiday check and slot walk keys off this index;
// never use time.Weekday numbering directly for those.
package weekday

import "time"

// Names lists the business-week day names in index order.
var Names = []string{
	"Saturday", "Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday",
}

// FromDate returns the business-week index for t (Saturday=0 .. Friday=6).
func FromDate(t time.Time) int {
	// time.Weekday: Sunday=0 .. Saturday=6.
	return (int(t.Weekday()) + 1) % 7
}

// Name returns the English day name for a business-week index.
// Out-of-range values return an empty string.
func Name(idx int) string {
	if idx < 0 || idx >= len(Names) {
		return ""
	}
	return Names[idx]
}
