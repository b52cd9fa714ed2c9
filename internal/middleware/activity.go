package middleware

import (
	"sync"
	"time"

	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// LastSeenStore records when a user was last active.
type LastSeenStore interface {
	UpdateLastSeen(userID uint) error
}

// ActivityMiddleware stamps the authenticated user's last_seen, writing at
// most once per interval per user to keep request paths off the database.
func ActivityMiddleware(store LastSeenStore, interval time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	lastWrite := make(map[uint]time.Time)

	return func(c *gin.Context) {
		if user := util.GetUserFromContext(c); user != nil {
			now := time.Now()
			mu.Lock()
			prev, ok := lastWrite[user.UserID]
			if !ok || now.Sub(prev) >= interval {
				lastWrite[user.UserID] = now
				mu.Unlock()
				go store.UpdateLastSeen(user.UserID)
			} else {
				mu.Unlock()
			}
		}
		c.Next()
	}
}
