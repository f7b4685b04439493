// Package dedup collapses records that describe the same citation and ranks
// the survivors. Merge runs once per request, after every branch resolved.
package dedup

import (
	"sort"

	"ticket-scout/internal/models"
)

// Merge deduplicates by citation number and returns records ranked by
// descending confidence. Records without a citation number cannot be keyed
// and are dropped. On a collision the higher-confidence record survives;
// equal confidence prefers the portal record over the OCR one. The function
// is pure: same multiset of inputs, same output, in any input order, and
// running it on its own output changes nothing.
func Merge(records []models.UnifiedTicketRecord) []models.UnifiedTicketRecord {
	byCitation := make(map[string]models.UnifiedTicketRecord, len(records))
	for _, record := range records {
		if record.CitationNumber == "" {
			continue
		}
		existing, seen := byCitation[record.CitationNumber]
		if !seen || supersedes(record, existing) {
			byCitation[record.CitationNumber] = record
		}
	}

	merged := make([]models.UnifiedTicketRecord, 0, len(byCitation))
	for _, record := range byCitation {
		merged = append(merged, record)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Confidence != merged[j].Confidence {
			return merged[i].Confidence > merged[j].Confidence
		}
		return merged[i].CitationNumber < merged[j].CitationNumber
	})
	return merged
}

// supersedes decides a key collision between a candidate and the record
// currently held for the same citation.
func supersedes(candidate, existing models.UnifiedTicketRecord) bool {
	if candidate.Confidence != existing.Confidence {
		return candidate.Confidence > existing.Confidence
	}
	// A portal record at equal confidence beats the OCR reading.
	return existing.Source.IsOCR() && !candidate.Source.IsOCR()
}
