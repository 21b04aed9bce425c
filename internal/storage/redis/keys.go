package redis

import (
	"fmt"

	"github.com/mcoot/flippo/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "flippo"

// sessionKey returns the Redis key for a reconnection session
func sessionKey(key string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, key)
}

// historyKey returns the Redis key for the LIST of a lobby's game summaries
func historyKey(lobbyID model.LobbyID) string {
	return fmt.Sprintf("%s:history:%s", keyPrefix, lobbyID)
}
