package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pairq_server/models"
	"pairq_server/utils"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ReaperService removes queue entries that have waited longer than a TTL.
// Its deletes are unconditional: racing a match transaction is benign,
// whichever commits first wins and the other delete is a no-op.
type ReaperService struct {
	Dynamo *DynamoService
}

// reaperPageSize bounds one GSI query page during a sweep
const reaperPageSize = 100

// ReapStale deletes every queue entry enqueued before now-ttl and returns
// how many were removed.
func (rs *ReaperService) ReapStale(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, errors.New("ttl must be positive")
	}

	cutoff := models.RankCutoff(time.Now().UTC().Add(-ttl))
	total := 0
	for _, category := range []string{models.CategoryVenter, models.CategoryListener} {
		removed, err := rs.reapCategory(ctx, category, cutoff)
		if err != nil {
			return total, err
		}
		total += removed
	}

	if total > 0 {
		log.Printf("Reaper removed %d stale queue entries", total)
	}
	return total, nil
}

// reapCategory pages through one side of the queue, oldest first, deleting
// everything below the cutoff rank.
func (rs *ReaperService) reapCategory(ctx context.Context, category, cutoff string) (int, error) {
	keyCondition := "#category = :category AND #rankKey < :cutoff"
	expressionValues := map[string]types.AttributeValue{
		":category": &types.AttributeValueMemberS{Value: category},
		":cutoff":   &types.AttributeValueMemberS{Value: cutoff},
	}
	expressionNames := map[string]string{
		"#category": "category",
		"#rankKey":  "rankKey",
	}

	removed := 0
	for {
		items, err := rs.Dynamo.QueryItemsWithIndex(ctx, models.QueueTable, models.QueueCategoryIndex,
			keyCondition, expressionValues, expressionNames, reaperPageSize, true)
		if err != nil {
			return removed, fmt.Errorf("failed to query stale entries for category %s: %w", category, err)
		}
		if len(items) == 0 {
			return removed, nil
		}

		writeRequests := make([]types.WriteRequest, 0, len(items))
		for _, item := range items {
			entryID := utils.ExtractString(item, "entryId")
			if entryID == "" {
				continue
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"entryId": &types.AttributeValueMemberS{Value: entryID},
					},
				},
			})
		}

		if err := rs.Dynamo.BatchWriteItems(ctx, models.QueueTable, writeRequests); err != nil {
			return removed, fmt.Errorf("failed to delete stale entries for category %s: %w", category, err)
		}
		removed += len(writeRequests)

		if len(items) < reaperPageSize {
			return removed, nil
		}
	}
}
