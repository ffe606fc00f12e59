package scrape

import "fmt"

// FetchError indicates the menu page could not be retrieved: a transport
// failure, or a response outside the 2xx range.
type FetchError struct {
	URL        string
	StatusCode int // 0 when the request never completed
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// InsufficientContentError indicates the page yielded too little text after
// cleanup to plausibly contain a menu (empty or inaccessible page).
type InsufficientContentError struct {
	URL    string
	Length int
}

func (e *InsufficientContentError) Error() string {
	return fmt.Sprintf("insufficient content at %s: %d chars after cleanup", e.URL, e.Length)
}
