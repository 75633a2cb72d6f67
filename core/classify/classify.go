// Package classify assigns a valid cost center to every usage record.
package classify

import (
	"strings"

	"go.uber.org/zap"

	"cloudalloc/core/policy"
	"cloudalloc/core/types"
	"cloudalloc/internal/logging"
)

// Classifier rewrites raw cost center tags into valid center codes
type Classifier struct {
	tables *policy.Tables
}

// New creates a classifier over the given policy tables
func New(tables *policy.Tables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify applies the cleansing rules in order and returns a new dataset.
// The input is not modified, and the aggregate cost is conserved: only
// cost center labels move. Running Classify on its own output is a no-op.
//
// Rules:
//  1. Untagged usage on a non-staging cluster is charged to the cluster
//     default center. Staging clusters keep their tagged owner.
//  2. The cluster tag is dropped.
//  3. A cost center outside the valid set becomes the "(not set)" sentinel.
//  4. Sentinel records are back-filled from the account owner table;
//     accounts with no owner entry keep the sentinel.
func (c *Classifier) Classify(records []types.UsageRecord) []types.UsageRecord {
	logging.Info("cleansing cost center tag data", zap.Int("records", len(records)))

	out := make([]types.UsageRecord, len(records))
	for i, r := range records {
		if r.ClusterTag != "" && !c.isStagingCluster(r.ClusterTag) && !c.isExplicitlyTagged(r) {
			r.CostCenter = c.tables.ClusterDefaultCenter
		}
		r.ClusterTag = ""

		if !c.tables.IsValidCenter(r.CostCenter) {
			r.CostCenter = policy.Unset
		}

		if r.CostCenter == policy.Unset {
			if owner, ok := c.tables.OwnerCenter(r.UsageAccountID); ok {
				r.CostCenter = owner
			}
		}

		out[i] = r
	}
	return out
}

func (c *Classifier) isStagingCluster(tag string) bool {
	return strings.Contains(tag, c.tables.StagingClusterMarker)
}

// isExplicitlyTagged reports whether the record carries a deliberate
// cost center tag. Empty and sentinel values count as untagged.
func (c *Classifier) isExplicitlyTagged(r types.UsageRecord) bool {
	return r.CostCenter != "" && r.CostCenter != policy.Unset
}
