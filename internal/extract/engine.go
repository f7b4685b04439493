// Package extract recovers structured citation fields from unstructured
// text. Both the OCR path and the scraping path feed it; it never fails on
// absent fields, it just omits them.
package extract

import (
	"strconv"
	"strings"
	"time"

	"ticket-scout/internal/common/logger"
	"ticket-scout/internal/models"
)

const (
	// Citations priced outside this band are someone else's numbers (page
	// IDs, years, ZIP codes). Out-of-range candidates are "not found",
	// never clamped.
	minPlausibleFine = 1.0
	maxPlausibleFine = 10000.0

	canonicalDateLayout = "2006-01-02"
)

// Engine applies an ordered matcher table per field. Stateless and safe for
// concurrent use.
type Engine struct {
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Extract pulls whatever fields the text yields, plus a coverage estimate in
// [0,1]. The estimate reflects how much of the record was recovered; the
// producing stage scales it by its own prior before stamping a record.
func (e *Engine) Extract(text string) (models.TicketFields, float64) {
	fields := models.TicketFields{}

	if citation, ok := firstMatch(text, citationPatterns); ok {
		fields.CitationNumber = strings.ToUpper(citation)
	}
	if amount, ok := e.extractAmount(text); ok {
		fields.FineAmount = &amount
	}
	if due, ok := e.extractDate(text, dueDatePatterns); ok {
		fields.DueDate = &due
	}
	if court, ok := e.extractDate(text, courtDatePatterns); ok {
		fields.CourtDate = &court
	}
	if dob, ok := e.extractDate(text, dobPatterns); ok {
		fields.DateOfBirth = &dob
	}
	if name, ok := firstMatch(text, namePatterns); ok {
		fields.Name = models.StrPtr(name)
	}
	if lic, ok := firstMatch(text, licensePatterns); ok {
		fields.LicenseNumber = models.StrPtr(strings.ToUpper(lic))
	}
	if violation, ok := firstMatch(text, violationPatterns); ok {
		fields.Violation = models.StrPtr(violation)
	}
	if courtName, ok := firstMatch(text, courtNamePatterns); ok {
		fields.CourtName = models.StrPtr(courtName)
	}
	if courtAddr, ok := firstMatch(text, courtAddressPatterns); ok {
		fields.CourtAddress = models.StrPtr(courtAddr)
	}
	if addr, ok := firstMatch(text, addressPatterns); ok {
		// The court-address pattern is more specific; don't echo it here.
		if fields.CourtAddress == nil || *fields.CourtAddress != addr {
			fields.Address = models.StrPtr(addr)
		}
	}

	return fields, coverage(fields)
}

// Result pairs one citation group's fields with the coverage estimate for
// that group alone.
type Result struct {
	Fields   models.TicketFields
	Coverage float64
}

// ExtractAll splits the text into citation groups, one per citation-number
// match, and extracts each group independently. Text with no citation match
// is treated as a single group.
func (e *Engine) ExtractAll(text string) []Result {
	segments := splitCitationGroups(text)

	out := make([]Result, 0, len(segments))
	for _, segment := range segments {
		fields, cov := e.Extract(segment)
		out = append(out, Result{Fields: fields, Coverage: cov})
	}
	return out
}

// Coverage weights the fields that matter for payment and appearance.
// A record with citation number, amount and due date is actionable; names
// and addresses are nice to have.
func coverage(fields models.TicketFields) float64 {
	score := 0.0
	if fields.CitationNumber != "" {
		score += 0.40
	}
	if fields.FineAmount != nil {
		score += 0.20
	}
	if fields.DueDate != nil {
		score += 0.15
	}
	if fields.Violation != nil {
		score += 0.10
	}
	if fields.CourtName != nil {
		score += 0.05
	}
	if fields.Name != nil {
		score += 0.05
	}
	if fields.CourtDate != nil {
		score += 0.05
	}
	return score
}

// firstMatch walks the matcher list and returns the first pattern's first
// capture, trimmed.
func firstMatch(text string, patterns []fieldPattern) (string, bool) {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			candidate := strings.TrimSpace(m[p.group])
			if candidate != "" {
				return candidate, true
			}
		}
	}
	return "", false
}

// extractAmount collects every candidate the winning pattern yields and
// keeps the maximum plausible one: line-item sums tend to appear before
// totals, so the largest valid amount is the balance owed.
func (e *Engine) extractAmount(text string) (float64, bool) {
	for _, p := range amountPatterns {
		matches := p.re.FindAllStringSubmatch(text, -1)
		if matches == nil {
			continue
		}

		best := 0.0
		found := false
		for _, m := range matches {
			raw := strings.ReplaceAll(m[p.group], ",", "")
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			if value < minPlausibleFine || value >= maxPlausibleFine {
				e.logger.Debug("discarding implausible amount candidate", map[string]interface{}{
					"candidate": value,
				})
				continue
			}
			if value > best {
				best = value
				found = true
			}
		}
		if found {
			return best, true
		}
		// The pattern matched but produced nothing plausible; fall through
		// to the next, less specific pattern.
	}
	return 0, false
}

// extractDate returns the first chronologically-valid candidate, normalized
// to the canonical layout. Unparseable candidates are skipped silently.
func (e *Engine) extractDate(text string, patterns []fieldPattern) (string, bool) {
	for _, p := range patterns {
		matches := p.re.FindAllStringSubmatch(text, -1)
		if matches == nil {
			continue
		}
		for _, m := range matches {
			if normalized, ok := normalizeDate(m[p.group]); ok {
				return normalized, true
			}
		}
	}
	return "", false
}

func normalizeDate(raw string) (string, bool) {
	candidate := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, candidate)
		if err != nil {
			continue
		}
		// Two-digit years far in the past are OCR noise, not citations.
		if parsed.Year() < 1900 {
			continue
		}
		return parsed.Format(canonicalDateLayout), true
	}
	return "", false
}

// splitCitationGroups cuts the text at each citation-number match so a
// results page listing N citations yields N segments.
func splitCitationGroups(text string) []string {
	var starts []int
	for _, p := range citationPatterns[:3] {
		locs := p.re.FindAllStringIndex(text, -1)
		for _, loc := range locs {
			starts = append(starts, loc[0])
		}
		if len(starts) > 0 {
			break
		}
	}

	if len(starts) <= 1 {
		return []string{text}
	}

	// Matches arrive in document order per pattern; keep them sorted and
	// unique before slicing.
	sortInts(starts)
	segments := make([]string, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if start < end {
			segments = append(segments, text[start:end])
		}
	}
	return segments
}

func sortInts(v []int) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}
