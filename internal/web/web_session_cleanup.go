package web

import (
	"log"
	"time"
)

// StartSessionCleanup starts a background goroutine that removes
// expired sessions from the users table.
func (s *WebServer) StartSessionCleanup() {
	go func() {
		for {
			time.Sleep(15 * time.Minute)
			if err := s.DB.CleanupExpiredSessions(); err != nil {
				log.Printf("[WEB]: Error cleaning up expired sessions: %v", err)
			}
		}
	}()

	log.Printf("[WEB]: Started session cleanup background task")
}
