package socket

import (
	"log"

	"pairq_server/models"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes and returns a new Socket.IO server. Waiting
// clients register with their userId and are told when a session is
// created for them.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("Socket connected:", c.ID())
		return nil
	})

	// Clients join a room named by their userId to receive pairing events
	server.OnEvent("/", "register", func(c socketio.Conn, userID string) {
		if userID == "" {
			log.Println("Invalid userId in register request")
			return
		}
		c.Join(userRoom(userID))
		log.Printf("Socket %s registered for user %s\n", c.ID(), userID)
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("Socket disconnected:", reason)
	})

	return server
}

// Notifier pushes session-creation events to waiting participants. It is
// an observer of match outcomes only and never affects their correctness.
type Notifier struct {
	Server *socketio.Server
}

// SessionCreated broadcasts the new session to both participants
func (n *Notifier) SessionCreated(session *models.Session) {
	for _, userID := range session.Participants {
		n.Server.BroadcastToRoom("/", userRoom(userID), "session:created", session)
	}
}

func userRoom(userID string) string {
	return "user:" + userID
}
