package pkce

import (
	"context"
	"sync"

	"github.com/skratchdot/open-golang/open"
)

// Navigator transfers control to an authorization URL.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, url string) error

func (f NavigatorFunc) Navigate(ctx context.Context, url string) error { return f(ctx, url) }

// BrowserNavigator opens URLs in the system browser.
type BrowserNavigator struct{}

func (BrowserNavigator) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return open.Run(url)
}

// RecordingNavigator remembers every URL it is asked to open.
type RecordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

func (r *RecordingNavigator) Navigate(_ context.Context, url string) error {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
	return nil
}

// URLs returns the recorded URLs in order.
func (r *RecordingNavigator) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

// Last returns the most recent URL, or "".
func (r *RecordingNavigator) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.urls) == 0 {
		return ""
	}
	return r.urls[len(r.urls)-1]
}
