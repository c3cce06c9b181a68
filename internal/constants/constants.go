package constants

// Session and context keys
const (
	SessionCookieName   = "roommates_session"
	ContextKeyUserID    = "user_id"
	ContextKeyGroupID   = "group_id"
	ContextKeyTask      = "task"
	ContextKeyRequestID = "request_id"
	HeaderRequestID     = "X-Request-ID"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxGroupNameLen   = 100
	MaxTaskNameLen    = 200
)

// Join codes
const (
	JoinCodeLength        = 4
	JoinCodeAlphabet      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	MaxJoinCodeAttempts   = 10
	PlaceholderOwnerName  = "Former member"
	DefaultTaskDifficulty = 1
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AI suggestions
const (
	MaxAIGeneratedTasks = 20
	MaxAIInputLength    = 4000
)

// Realtime
const (
	SubscriberBufferSize = 16
)
