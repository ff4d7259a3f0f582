// Package dedup removes repeated operations of the same trading entity
package dedup

import (
	"strings"

	"sidu_reader/pkg/models"
)

// Dedup keeps the first record of each entity and returns the rest as removed.
// The entity is the shipper for exports and the consignee for imports. Entities are
// compared after trimming; records with an empty entity collapse into one like any
// other value.
func Dedup(records []models.Record, op models.OperationType) (kept, removed []models.Record) {
	seen := make(map[string]struct{}, len(records))
	kept = make([]models.Record, 0, len(records))

	for _, r := range records {
		entity := strings.TrimSpace(r.Entity(op))
		if _, dup := seen[entity]; dup {
			removed = append(removed, r)
			continue
		}
		seen[entity] = struct{}{}
		kept = append(kept, r)
	}
	return kept, removed
}
