// Package auth defines the authentication contract the pipeline consumes.
// The pipeline only ever asks "am I signed in" and "sign me in"; the flow
// internals belong to the provider.
package auth

import "context"

// Authenticator is the narrow interface the pipeline requires.
type Authenticator interface {
	// IsSignedIn reports whether a valid session exists.
	IsSignedIn(ctx context.Context) bool

	// SignIn establishes a session. Returns an error when the provider
	// rejects the credentials.
	SignIn(ctx context.Context) error
}

// Static is an Authenticator that is always signed in. Used when the
// remote store carries its own credentials (SAS URL, static keys) and no
// separate session is involved.
type Static struct{}

func (Static) IsSignedIn(context.Context) bool { return true }
func (Static) SignIn(context.Context) error    { return nil }
