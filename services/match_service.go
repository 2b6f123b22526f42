package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"pairq_server/models"
	"pairq_server/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// ErrInvariantViolation marks a match attempt that would have paired an
// entry with itself or with its own side. Nothing is committed when it is
// returned.
var ErrInvariantViolation = errors.New("match invariant violation")

// MatchConfig bounds the transaction retry loop. Retries apply only to
// lost races (conditional check failures); genuine store errors surface
// immediately.
type MatchConfig struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultMatchConfig returns the retry budget used when none is configured
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MaxAttempts: 5,
		BackoffBase: 25 * time.Millisecond,
		BackoffMax:  500 * time.Millisecond,
	}
}

// SessionNotifier observes session creation. It never participates in
// match correctness; failures to notify are not failures to match.
type SessionNotifier interface {
	SessionCreated(session *models.Session)
}

// MatchService pairs a newly enqueued entry with the oldest waiting entry
// of the opposite category, atomically, via a conditional DynamoDB
// transaction.
type MatchService struct {
	Dynamo   *DynamoService
	Queue    *QueueService
	Config   MatchConfig
	Notifier SessionNotifier
}

// Match outcome reasons
const (
	OutcomeMatched           = "matched"
	OutcomeEntryConsumed     = "entry_already_consumed"
	OutcomeNoCandidate       = "no_candidate"
	OutcomeCandidateConsumed = "candidate_consumed"
)

// MatchOutcome reports what a queue event resolved to. A non-matched
// outcome is a committed no-op, not an error.
type MatchOutcome struct {
	Matched bool            `json:"matched"`
	Reason  string          `json:"reason"`
	Match   *models.Match   `json:"match,omitempty"`
	Session *models.Session `json:"session,omitempty"`
}

// HandleQueueEvent processes the creation of one queue entry. The trigger
// platform delivers at least once, so this is idempotent: re-running it
// for an already-consumed entry commits a no-op. Lost races against
// concurrent events are retried up to the configured budget with jittered
// exponential backoff.
func (ms *MatchService) HandleQueueEvent(ctx context.Context, entryID string) (*MatchOutcome, error) {
	if entryID == "" {
		return nil, errors.New("entryId is required")
	}

	cfg := ms.Config
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultMatchConfig()
	}

	backoff := cfg.BackoffBase
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		outcome, err := ms.tryMatch(ctx, entryID)
		if err == nil {
			if outcome.Matched && ms.Notifier != nil {
				ms.Notifier.SessionCreated(outcome.Session)
			}
			return outcome, nil
		}
		if !IsTransactionConflict(err) {
			return nil, err
		}

		// Lost the race for one of the entries; re-run the whole body so
		// the re-reads observe the committed state.
		log.Printf("Match attempt %d for entry %s hit a write conflict, retrying", attempt, entryID)
		lastErr = err
		if attempt < cfg.MaxAttempts {
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
			if backoff > cfg.BackoffMax {
				backoff = cfg.BackoffMax
			}
		}
	}

	return nil, fmt.Errorf("match for entry %s not committed after %d attempts: %w", entryID, cfg.MaxAttempts, lastErr)
}

// tryMatch executes one logical match transaction for the triggering entry
func (ms *MatchService) tryMatch(ctx context.Context, entryID string) (*MatchOutcome, error) {
	// Re-read the triggering entry. A previous delivery or a concurrent
	// event may have consumed it already.
	entry, err := ms.Queue.GetEntry(ctx, entryID)
	if errors.Is(err, ErrItemNotFound) {
		return &MatchOutcome{Reason: OutcomeEntryConsumed}, nil
	}
	if err != nil {
		return nil, err
	}

	candidateID, err := ms.oldestCandidateID(ctx, models.OppositeCategory(entry.Category))
	if err != nil {
		return nil, err
	}
	if candidateID == "" {
		// Nobody is waiting on the other side; the entry stays queued and
		// is reconsidered when a future opposite arrival fires its trigger.
		return &MatchOutcome{Reason: OutcomeNoCandidate}, nil
	}

	// Re-read the candidate by id. The index is eventually consistent, so
	// this read is the authoritative check; its existence is re-verified
	// once more at commit time by the transaction condition.
	candidate, err := ms.Queue.GetEntry(ctx, candidateID)
	if errors.Is(err, ErrItemNotFound) {
		return &MatchOutcome{Reason: OutcomeCandidateConsumed}, nil
	}
	if err != nil {
		return nil, err
	}

	// Structurally impossible given category-scoped querying, but never
	// commit a pair that violates the contract.
	if candidate.EntryID == entry.EntryID || candidate.UserID == entry.UserID || candidate.Category == entry.Category {
		log.Printf("Refusing invalid pair: entry %s (%s/%s) vs candidate %s (%s/%s)",
			entry.EntryID, entry.UserID, entry.Category,
			candidate.EntryID, candidate.UserID, candidate.Category)
		return nil, fmt.Errorf("%w: entry %s vs candidate %s", ErrInvariantViolation, entry.EntryID, candidate.EntryID)
	}

	return ms.commitMatch(ctx, entry, candidate)
}

// commitMatch writes the match and session and deletes both consumed
// entries in one atomic transaction. The deletes are conditioned on the
// entries still existing, so of two racing transactions at most one
// commits; the loser surfaces a conflict and is retried by the caller.
func (ms *MatchService) commitMatch(ctx context.Context, entry, candidate *models.QueueEntry) (*MatchOutcome, error) {
	matchID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	// Participant A is the longer-waiting side. The session shares the
	// match id, and the committed record carries the final status: the
	// intermediate "matched" state is never observable outside the
	// transaction.
	match := &models.Match{
		MatchID:        matchID,
		ParticipantAID: candidate.UserID,
		ParticipantBID: entry.UserID,
		MatchedAt:      now,
		Status:         models.MatchStatusSessionCreated,
		SessionID:      matchID,
	}
	session := &models.Session{
		SessionID:      matchID,
		Participants:   []string{candidate.UserID, entry.UserID},
		CreatedAt:      now,
		LastActivityAt: now,
		IsActive:       true,
	}

	matchItem, err := attributevalue.MarshalMap(match)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal match: %w", err)
	}
	sessionItem, err := attributevalue.MarshalMap(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	items := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:           aws.String(models.MatchesTable),
			Item:                matchItem,
			ConditionExpression: aws.String("attribute_not_exists(matchId)"),
		}},
		{Put: &types.Put{
			TableName:           aws.String(models.SessionsTable),
			Item:                sessionItem,
			ConditionExpression: aws.String("attribute_not_exists(sessionId)"),
		}},
		{Delete: &types.Delete{
			TableName:           aws.String(models.QueueTable),
			Key:                 map[string]types.AttributeValue{"entryId": &types.AttributeValueMemberS{Value: entry.EntryID}},
			ConditionExpression: aws.String("attribute_exists(entryId)"),
		}},
		{Delete: &types.Delete{
			TableName:           aws.String(models.QueueTable),
			Key:                 map[string]types.AttributeValue{"entryId": &types.AttributeValueMemberS{Value: candidate.EntryID}},
			ConditionExpression: aws.String("attribute_exists(entryId)"),
		}},
	}

	if err := ms.Dynamo.TransactWriteItems(ctx, items); err != nil {
		return nil, err
	}

	log.Printf("Matched entries %s and %s into session %s", candidate.EntryID, entry.EntryID, matchID)
	return &MatchOutcome{
		Matched: true,
		Reason:  OutcomeMatched,
		Match:   match,
		Session: session,
	}, nil
}

// oldestCandidateID finds the longest-waiting entry of a category, or ""
// when that side of the queue is empty. Entries sharing a timestamp are
// ordered by entry id through the rank key.
func (ms *MatchService) oldestCandidateID(ctx context.Context, category string) (string, error) {
	keyCondition := "#category = :category"
	expressionValues := map[string]types.AttributeValue{
		":category": &types.AttributeValueMemberS{Value: category},
	}
	expressionNames := map[string]string{
		"#category": "category",
	}

	items, err := ms.Dynamo.QueryItemsWithIndex(ctx, models.QueueTable, models.QueueCategoryIndex,
		keyCondition, expressionValues, expressionNames, 1, true)
	if err != nil {
		return "", fmt.Errorf("failed to query candidates for category %s: %w", category, err)
	}
	if len(items) == 0 {
		return "", nil
	}

	return utils.ExtractString(items[0], "entryId"), nil
}

// sleepWithJitter waits for roughly d (between d/2 and d) or until the
// context is done.
func sleepWithJitter(ctx context.Context, d time.Duration) error {
	wait := d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
