package solana

import "context"

// LogsSubscriber streams logsSubscribe notifications.
type LogsSubscriber interface {
	// Subscribe delivers notifications matching filter to handle until ctx is
	// cancelled, reconnecting and resubscribing after connection loss.
	Subscribe(ctx context.Context, filter LogsFilter, handle func(LogNotification)) error
}

// LogsFilter defines subscription filter for logs.
type LogsFilter struct {
	// Mentions filters logs that mention any of these addresses.
	Mentions []string
}

// LogNotification represents a logs subscription message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}
