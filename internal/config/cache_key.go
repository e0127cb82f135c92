package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// DraftKey returns the cache key for an admin's course draft
func (r *CacheKeyStruct) DraftKey(userID int) string {
	return fmt.Sprintf("draft:%d", userID)
}

// SubmissionEventsChannel returns the Redis PubSub channel for a submission's progress events
func (r *CacheKeyStruct) SubmissionEventsChannel(submissionID string) string {
	return fmt.Sprintf("submission:%s:events", submissionID)
}

// SubmitLockKey marks an admin's in-flight submission
func (r *CacheKeyStruct) SubmitLockKey(userID int) string {
	return fmt.Sprintf("lock:submit:%d", userID)
}

// SweepLockKey guards the orphan sweep against concurrent runs across instances
func (r *CacheKeyStruct) SweepLockKey() string {
	return "lock:orphan_sweep"
}

var CacheKey = NewCacheKeyStruct()
