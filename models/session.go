package models

// Session is the collaborative context a match creates. It shares its id
// with the Match that produced it; its lifecycle after creation belongs to
// the chat collaborator.
type Session struct {
	SessionID      string   `dynamodbav:"sessionId" json:"sessionId"`
	Participants   []string `dynamodbav:"participants" json:"participants"`
	CreatedAt      string   `dynamodbav:"createdAt" json:"createdAt"`
	LastActivityAt string   `dynamodbav:"lastActivityAt" json:"lastActivityAt"`
	IsActive       bool     `dynamodbav:"isActive" json:"isActive"`
}

// SessionsTable is the DynamoDB table name for sessions
const SessionsTable = "Sessions"
