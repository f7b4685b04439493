package extract

import "regexp"

// Each field carries an ordered matcher list, most specific first. The first
// pattern that yields at least one usable candidate wins; later patterns are
// only consulted when everything before them came up empty. Fields are
// matched independently of one another.

type fieldPattern struct {
	re    *regexp.Regexp
	group int
}

// dateToken matches the date formats municipal portals and paper citations
// actually print: 08/15/2026, 8-15-26, 2026-08-15, Aug 15, 2026.
const dateToken = `(\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{2}-\d{2}|[A-Z][a-z]{2,8}\.?\s+\d{1,2},?\s+\d{4})`

var citationPatterns = []fieldPattern{
	// Captures stay case-sensitive: citation identifiers are printed in
	// caps, and a case-folded class would swallow ordinary prose words.
	{regexp.MustCompile(`(?i)citation\s*(?:no|number|num|#)?\s*[:.#]?\s*((?-i:[A-Z0-9][A-Z0-9-]{3,19}))`), 1},
	{regexp.MustCompile(`(?i)ticket\s*(?:no|number|num|#)?\s*[:.#]?\s*((?-i:[A-Z0-9][A-Z0-9-]{3,19}))`), 1},
	{regexp.MustCompile(`(?i)case\s*(?:no|number|#)\s*[:.#]?\s*((?-i:[A-Z0-9][A-Z0-9-]{3,19}))`), 1},
	// Bare citation shapes like "SP202612345" only as a last resort.
	{regexp.MustCompile(`\b([A-Z]{1,3}\d{6,12})\b`), 1},
}

var amountPatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:total|balance)\s*(?:due|owed)?\s*[:.]?\s*\$?\s*([\d,]+(?:\.\d{1,2})?)`), 1},
	{regexp.MustCompile(`(?i)(?:fine|amount)\s*(?:due|owed)?\s*[:.]?\s*\$?\s*([\d,]+(?:\.\d{1,2})?)`), 1},
	{regexp.MustCompile(`\$\s*([\d,]+\.\d{2})`), 1},
}

var dueDatePatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:due|pay\s*by|payable\s*(?:on|by))\s*(?:date)?\s*[:.]?\s*` + dateToken), 1},
	{regexp.MustCompile(`(?i)due\s*date\s*[:.]?\s*` + dateToken), 1},
}

var courtDatePatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:court|appearance|hearing|arraignment)\s*date\s*[:.]?\s*` + dateToken), 1},
	{regexp.MustCompile(`(?i)appear\s*(?:on|by)\s*[:.]?\s*` + dateToken), 1},
}

var dobPatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:date\s*of\s*birth|dob|d\.o\.b\.?)\s*[:.]?\s*` + dateToken), 1},
}

var namePatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:defendant|violator)\s*(?:name)?\s*[:.]?[ \t]*([A-Z][A-Za-z ,.'-]{2,60})`), 1},
	{regexp.MustCompile(`(?i)\bname\s*[:.][ \t]*([A-Z][A-Za-z ,.'-]{2,60})`), 1},
}

var licensePatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:driver'?s?\s*license|dl)\s*(?:no|number|#)?\s*[:.#]?\s*((?-i:[A-Z0-9]{5,20}))\b`), 1},
	{regexp.MustCompile(`(?i)\blic(?:ense)?\s*(?:no|number|#)\s*[:.#]?\s*((?-i:[A-Z0-9]{5,20}))\b`), 1},
}

var violationPatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)violation\s*(?:description)?\s*[:.][ \t]*([^\n]{3,100})`), 1},
	{regexp.MustCompile(`(?i)offense\s*[:.][ \t]*([^\n]{3,100})`), 1},
	{regexp.MustCompile(`(?i)charge\s*[:.][ \t]*([^\n]{3,100})`), 1},
}

var courtNamePatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)court\s*(?:name)?\s*[:.][ \t]*([^\n]{3,80})`), 1},
	{regexp.MustCompile(`((?:[A-Z][A-Za-z.]*\s+){1,4}Municipal\s+Court)`), 1},
}

var courtAddressPatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)court\s*address\s*[:.][ \t]*([^\n]{5,120})`), 1},
}

var addressPatterns = []fieldPattern{
	{regexp.MustCompile(`(?i)(?:home|mailing|residence)?\s*address\s*[:.][ \t]*([^\n]{5,120})`), 1},
}

// dateLayouts, in the order normalization attempts them.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01-02-2006",
	"1-2-2006",
	"01-02-06",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"Jan. 2, 2006",
}
