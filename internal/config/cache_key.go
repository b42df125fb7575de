package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AuthSessionKey returns the cache key registering a logged-in identity token
func (r *CacheKeyStruct) AuthSessionKey(tokenID string) string {
	return fmt.Sprintf("auth:session:%s", tokenID)
}

// AllFormsKey returns the cache key for the getAllForms catalogue
func (r *CacheKeyStruct) AllFormsKey() string {
	return "forms:all"
}

// FormEventsChannel returns the Redis PubSub channel carrying a form's editor notifications
func (r *CacheKeyStruct) FormEventsChannel(formID string) string {
	return fmt.Sprintf("form:%s:events", formID)
}

var CacheKey = NewCacheKeyStruct()
