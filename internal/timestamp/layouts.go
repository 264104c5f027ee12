package timestamp

// DefaultLayouts are the date layouts tried against candidate timestamp text.
//
// Parsing is strict: the whole candidate must match a layout. Fractional
// seconds written with either ',' or '.' are accepted after any seconds
// field, so "2006-01-02 15:04:05" also covers "2015-10-17 15:37:56,547".
// No two layouts may accept the same text with different meanings, which is
// why only the month-first slash form is listed.
var DefaultLayouts = []string{
	"2006-01-02 15:04:05",        // Hadoop, generic datetime
	"2006-01-02T15:04:05Z07:00",  // RFC3339
	"2006-01-02T15:04:05",        // ISO 8601 without zone
	"01-02 15:04:05",             // Android logcat
	"Mon Jan 02 15:04:05 2006",   // Apache error log
	"Mon Jan _2 15:04:05 2006",   // Apache error log, space padded day
	"Jan 2 15:04:05",             // Syslog
	"02/Jan/2006:15:04:05 -0700", // Apache/Nginx access log
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"02-Jan-2006 15:04:05",
	"20060102_150405",
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"15:04:05",
	"15:04",
}
