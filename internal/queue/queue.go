package queue

import "context"

// Publisher hands one work item per batch to the external generation worker.
// Consumption is fully asynchronous and out of process; the publisher makes
// no promise about when or whether the item is processed, and performs no
// retries of its own; redelivery is the queue infrastructure's job.
type Publisher interface {
	Publish(ctx context.Context, msg BatchMessage) error
}
