package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateQuizCache invalidates all quiz-related caches using pipeline
func InvalidateQuizCache(ctx context.Context, cm *CacheManager, quizID uint, creatorID string) {
	SafeDelete(ctx, cm.Quiz,
		fmt.Sprintf("id:%d", quizID),
		fmt.Sprintf("details:%d", quizID))

	SafeInvalidatePattern(ctx, cm.Quiz, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Quiz, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("quiz:%d:*", quizID))
}

// InvalidateAttemptCache invalidates attempt-derived caches for a quiz
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, quizID uint, studentID string) {
	SafeDelete(ctx, cm.Fast, fmt.Sprintf("active:%d:%s", quizID, studentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("quiz:%d:*", quizID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("student:%s:*", studentID))
}
