package models

import (
	"fmt"
	"time"
)

// QueueEntry is a waiting participant on one side of the queue. Entries are
// immutable: they are created by the enqueue API and deleted exactly once,
// either by a match transaction or by the reaper.
type QueueEntry struct {
	EntryID    string `dynamodbav:"entryId" json:"entryId"`
	UserID     string `dynamodbav:"userId" json:"userId"`
	Category   string `dynamodbav:"category" json:"category"`
	EnqueuedAt string `dynamodbav:"enqueuedAt" json:"enqueuedAt"`
	RankKey    string `dynamodbav:"rankKey" json:"-"`
}

// QueueTable is the DynamoDB table name for waiting queue entries
const QueueTable = "MatchQueue"

// QueueCategoryIndex is the GSI over (category, rankKey) used to find the
// oldest waiting entry of a category.
const QueueCategoryIndex = "category-rankKey-index"

// rankTimeLayout prints every fractional digit so rank keys of any two
// entries compare lexicographically in timestamp order.
const rankTimeLayout = "2006-01-02T15:04:05.000000000Z"

// RankKeyFor builds the GSI sort key for an entry. The entry id is appended
// as a secondary key so entries sharing a timestamp still have a
// deterministic order.
func RankKeyFor(enqueuedAt time.Time, entryID string) string {
	return fmt.Sprintf("%s#%s", enqueuedAt.UTC().Format(rankTimeLayout), entryID)
}

// RankCutoff builds the exclusive upper bound for rank-key range queries:
// every entry enqueued strictly before t sorts below it.
func RankCutoff(t time.Time) string {
	return t.UTC().Format(rankTimeLayout)
}
