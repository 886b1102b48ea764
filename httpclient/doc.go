// Package httpclient is the JSON HTTP client used by the session controller
// to reach the auth API.
//
// It resolves paths against a base URL, keeps cookies across calls the way a
// browser does for same-origin credentialed requests, tags every request
// with an X-Request-ID, and classifies failures into *Error values. A
// non-2xx response is returned together with its *Error so callers can read
// the server's error body.
//
//	client, err := httpclient.New(httpclient.Config{BaseURL: "http://localhost:8080"})
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/auth/login",
//	    Body:   creds,
//	})
package httpclient
