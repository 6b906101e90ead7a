package capture

import (
	"context"
	"fmt"
	"github.com/codeclub/challengescot/challenge"
	"io"
	"sync"
)

// Fetcher serves attachment contents keyed by attachment id
type Fetcher struct {
	mu       sync.Mutex
	Contents map[string]string

	// Err, when set, is returned by every fetch
	Err error

	// OnFetch is called before the content of an attachment is written
	OnFetch func(a challenge.Attachment)

	Fetched []string
}

// NewFetcher returns a new Fetcher serving the given contents
func NewFetcher(contents map[string]string) (f *Fetcher) {
	f = new(Fetcher)
	f.Contents = contents
	f.Fetched = make([]string, 0)

	return f
}

// Fetch writes the content of the attachment
func (f *Fetcher) Fetch(ctx context.Context, a challenge.Attachment, w io.Writer) (err error) {
	f.mu.Lock()
	f.Fetched = append(f.Fetched, a.ID)
	content, ok := f.Contents[a.ID]
	fetchErr := f.Err
	hook := f.OnFetch
	f.mu.Unlock()

	if fetchErr != nil {
		return fetchErr
	}

	if hook != nil {
		hook(a)
	}

	if !ok {
		return fmt.Errorf("file_not_found [%s]", a.ID)
	}

	_, err = io.WriteString(w, content)
	return err
}

// Authorizer grants administrator privileges to a fixed set of users
type Authorizer struct {
	Admins map[string]bool

	// Err, when set, is returned by every check
	Err error
}

// NewAuthorizer returns an Authorizer granting privileges to the given users
func NewAuthorizer(admins ...string) (a *Authorizer) {
	a = new(Authorizer)
	a.Admins = make(map[string]bool)

	for _, id := range admins {
		a.Admins[id] = true
	}

	return a
}

// IsAdmin returns true if the user is one of the administrators
func (a *Authorizer) IsAdmin(ctx context.Context, userID string) (admin bool, err error) {
	if a.Err != nil {
		return false, a.Err
	}

	return a.Admins[userID], nil
}
