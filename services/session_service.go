package services

import (
	"context"
	"fmt"
	"time"

	"pairq_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SessionService is the read/lifecycle surface the chat collaborator uses
// once a match has created its session. Session creation itself happens
// only inside the match transaction.
type SessionService struct {
	Dynamo *DynamoService
}

// GetSession retrieves a session by id
func (ss *SessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	key := map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: sessionID},
	}

	item, err := ss.Dynamo.GetItem(ctx, models.SessionsTable, key)
	if err != nil {
		return nil, err
	}

	var session models.Session
	if err := attributevalue.UnmarshalMap(item, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", sessionID, err)
	}
	return &session, nil
}

// GetMatch retrieves a match record by id
func (ss *SessionService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}

	item, err := ss.Dynamo.GetItem(ctx, models.MatchesTable, key)
	if err != nil {
		return nil, err
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, fmt.Errorf("failed to parse match %s: %w", matchID, err)
	}
	return &match, nil
}

// TouchSession bumps lastActivityAt to now
func (ss *SessionService) TouchSession(ctx context.Context, sessionID string) error {
	updateExpression := "SET lastActivityAt = :now"
	key := map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: sessionID},
	}
	expressionValues := map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
	}

	if _, err := ss.Dynamo.UpdateItem(ctx, models.SessionsTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to touch session %s: %w", sessionID, err)
	}
	return nil
}

// CloseSession marks a session inactive
func (ss *SessionService) CloseSession(ctx context.Context, sessionID string) error {
	updateExpression := "SET isActive = :inactive"
	key := map[string]types.AttributeValue{
		"sessionId": &types.AttributeValueMemberS{Value: sessionID},
	}
	expressionValues := map[string]types.AttributeValue{
		":inactive": &types.AttributeValueMemberBOOL{Value: false},
	}

	if _, err := ss.Dynamo.UpdateItem(ctx, models.SessionsTable, updateExpression, key, expressionValues, nil); err != nil {
		return fmt.Errorf("failed to close session %s: %w", sessionID, err)
	}
	return nil
}
