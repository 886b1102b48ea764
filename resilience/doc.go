// Package resilience provides retry with exponential backoff.
//
// authkit retries only operations that are safe to repeat: opening a
// remote storage backend and, when configured, auth API calls that failed
// before a response was received.
//
//	client, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() (*redis.Client, error) {
//	    return dial(ctx)
//	})
package resilience
