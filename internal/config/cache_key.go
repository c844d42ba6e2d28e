package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionKey returns the cache key for a user's active session (JTI).
func (r *CacheKeyStruct) SessionKey(email string) string {
	return fmt.Sprintf("session:%s", email)
}

// StaffStatusKey returns the cache key for a user's staff verification status.
func (r *CacheKeyStruct) StaffStatusKey(email string) string {
	return fmt.Sprintf("staff:%s:status", email)
}

var CacheKey = NewCacheKeyStruct()
