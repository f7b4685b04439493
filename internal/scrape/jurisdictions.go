package scrape

import "ticket-scout/internal/models"

// KnownSources maps the source identifiers the API accepts to their
// provenance tags. Adding a jurisdiction means adding an entry here plus a
// SourceConfig record in configs/config.yaml; the scraper itself never
// changes.
var KnownSources = map[string]models.Source{
	"shavano-park":     models.SourceShavanoPark,
	"leon-valley":      models.SourceLeonValley,
	"balcones-heights": models.SourceBalconesHeights,
}

// SourceTag resolves the provenance tag for a jurisdiction identifier.
func SourceTag(source string) (models.Source, bool) {
	tag, ok := KnownSources[source]
	return tag, ok
}
