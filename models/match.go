package models

// Match is the durable evidence that two queue entries were paired.
// ParticipantAID is the longer-waiting side (the consumed candidate);
// ParticipantBID is the arrival whose trigger committed the match.
type Match struct {
	MatchID        string `dynamodbav:"matchId" json:"matchId"`
	ParticipantAID string `dynamodbav:"participantAId" json:"participantAId"`
	ParticipantBID string `dynamodbav:"participantBId" json:"participantBId"`
	MatchedAt      string `dynamodbav:"matchedAt" json:"matchedAt"`
	Status         string `dynamodbav:"status" json:"status"`
	SessionID      string `dynamodbav:"sessionId,omitempty" json:"sessionId,omitempty"`
}

// MatchesTable is the DynamoDB table name for match records
const MatchesTable = "Matches"
