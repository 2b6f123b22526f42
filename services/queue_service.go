package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pairq_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// QueueService struct
type QueueService struct {
	Dynamo *DynamoService
}

// Enqueue creates a new waiting entry for a user on one side of the queue.
// The caller owns the "one active entry per user" precondition; this only
// guards against entry id collisions.
func (qs *QueueService) Enqueue(ctx context.Context, userID, category string) (*models.QueueEntry, error) {
	if userID == "" {
		return nil, errors.New("userId is required")
	}
	if !models.ValidCategory(category) {
		return nil, fmt.Errorf("invalid category: %q", category)
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	entry := &models.QueueEntry{
		EntryID:    entryID,
		UserID:     userID,
		Category:   category,
		EnqueuedAt: now.Format(time.RFC3339Nano),
		RankKey:    models.RankKeyFor(now, entryID),
	}

	if err := qs.Dynamo.PutItemIfAbsent(ctx, models.QueueTable, entry, "entryId"); err != nil {
		return nil, fmt.Errorf("failed to enqueue user %s: %w", userID, err)
	}

	return entry, nil
}

// GetEntry re-reads a queue entry by id. Returns ErrItemNotFound when the
// entry has already been consumed or reaped.
func (qs *QueueService) GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, error) {
	key := map[string]types.AttributeValue{
		"entryId": &types.AttributeValueMemberS{Value: entryID},
	}

	item, err := qs.Dynamo.GetItem(ctx, models.QueueTable, key)
	if err != nil {
		return nil, err
	}

	var entry models.QueueEntry
	if err := attributevalue.UnmarshalMap(item, &entry); err != nil {
		return nil, fmt.Errorf("failed to parse queue entry %s: %w", entryID, err)
	}
	return &entry, nil
}

// ListWaiting returns up to limit waiting entries of one category in FIFO
// order (oldest first).
func (qs *QueueService) ListWaiting(ctx context.Context, category string, limit int32) ([]models.QueueEntry, error) {
	if !models.ValidCategory(category) {
		return nil, fmt.Errorf("invalid category: %q", category)
	}

	keyCondition := "#category = :category"
	expressionValues := map[string]types.AttributeValue{
		":category": &types.AttributeValueMemberS{Value: category},
	}
	expressionNames := map[string]string{
		"#category": "category",
	}

	items, err := qs.Dynamo.QueryItemsWithIndex(ctx, models.QueueTable, models.QueueCategoryIndex,
		keyCondition, expressionValues, expressionNames, limit, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting entries: %w", err)
	}

	var entries []models.QueueEntry
	if err := attributevalue.UnmarshalListOfMaps(items, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse waiting entries: %w", err)
	}
	return entries, nil
}
