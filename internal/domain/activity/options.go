package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	SessionID    string
	PollID       *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
