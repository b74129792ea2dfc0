package backend

import (
	"fmt"
	"time"
)

// DateTimeVariable is the template-context key resolved to a human-readable
// timestamp before the session is created. The backend reads the value as
// prompt material, so it must be prose, not an epoch.
const DateTimeVariable = "currentDateTime"

var weekdayNames = map[string][7]string{
	"en": {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	"de": {"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
	"it": {"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"},
}

var monthNames = map[string][12]string{
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	"de": {"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
	"it": {"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno", "luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"},
}

// FormatDateTime renders now as weekday, long month, numeric day and 2-digit
// hour:minute in the given language. Unknown languages fall back to English.
func FormatDateTime(now time.Time, lang string) string {
	weekdays, ok := weekdayNames[lang]
	if !ok {
		weekdays = weekdayNames["en"]
	}
	months, ok := monthNames[lang]
	if !ok {
		months = monthNames["en"]
	}
	weekday := weekdays[int(now.Weekday())]
	month := months[int(now.Month())-1]

	switch lang {
	case "de":
		return fmt.Sprintf("%s, %d. %s, %02d:%02d", weekday, now.Day(), month, now.Hour(), now.Minute())
	case "it":
		return fmt.Sprintf("%s %d %s, %02d:%02d", weekday, now.Day(), month, now.Hour(), now.Minute())
	default:
		return fmt.Sprintf("%s, %s %d, %02d:%02d", weekday, month, now.Day(), now.Hour(), now.Minute())
	}
}

// ResolveTemplateContext fills the declared datetime variable, if present, with
// the formatted current time in the configured timezone. Other entries pass
// through untouched.
func ResolveTemplateContext(tc map[string]string, now time.Time, loc *time.Location, lang string) map[string]string {
	resolved := make(map[string]string, len(tc))
	for k, v := range tc {
		resolved[k] = v
	}
	if _, declared := resolved[DateTimeVariable]; declared {
		resolved[DateTimeVariable] = FormatDateTime(now.In(loc), lang)
	}
	return resolved
}
