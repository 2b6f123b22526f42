package services

import (
	"context"
	"testing"
	"time"

	"pairq_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycleAfterMatch(t *testing.T) {
	env := newTestEnv(t)
	env.insertEntry(t, "a1", "alice", models.CategoryVenter, testBase)
	env.insertEntry(t, "b1", "bob", models.CategoryListener, testBase.Add(time.Second))

	outcome, err := env.match.HandleQueueEvent(context.Background(), "b1")
	require.NoError(t, err)
	require.True(t, outcome.Matched)
	sessionID := outcome.Session.SessionID

	session, err := env.session.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, session.Participants)
	assert.True(t, session.IsActive)

	match, err := env.session.GetMatch(context.Background(), outcome.Match.MatchID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, match.SessionID)
	assert.Equal(t, models.MatchStatusSessionCreated, match.Status)

	// Activity bumps move lastActivityAt forward.
	before := session.LastActivityAt
	require.NoError(t, env.session.TouchSession(context.Background(), sessionID))
	touched, err := env.session.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, touched.LastActivityAt, before)

	// Closing flips isActive without deleting anything.
	require.NoError(t, env.session.CloseSession(context.Background(), sessionID))
	closed, err := env.session.GetSession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	assert.Equal(t, 1, env.fake.count(models.SessionsTable))
}

func TestGetSessionMissing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.session.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrItemNotFound)
}
