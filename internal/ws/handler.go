package ws

import (
	"net/http"

	"mine_economy/internal/http/httperr"
	"mine_economy/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades a participant's connection for the session named by the
// :id path parameter. The JWT middleware must have set user_id.
func HandleWS(sessions Sessions, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		sessionID := c.Param("id")

		// subscribe before the upgrade so lookup errors are plain HTTP responses
		updates, cancel, err := sessions.Subscribe(sessionID, userID)
		if err != nil {
			status, _ := httperr.Status(err)
			c.JSON(status, httperr.Body(err))
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			cancel()
			logger.Warn("ws upgrade error", "user_id", userID, "error", err)
			return
		}

		client := NewClient(userID, sessionID, conn, sessions, updates, cancel)
		go client.Run()
	}
}
