package platform

import (
	"context"
)

type CredentialKind string

const (
	// CredentialOAuth carries a bearer token for platforms with official APIs.
	CredentialOAuth CredentialKind = "oauth"
	// CredentialSession carries username/password plus a reusable serialized
	// session for platforms driven through a private client.
	CredentialSession CredentialKind = "session"
)

// Credentials is the single normalized credential shape publishers accept.
// It is constructed once at the provider boundary; publishers never see raw
// account rows.
type Credentials struct {
	Kind        CredentialKind
	AccountID   int64
	AccessToken string
	Username    string
	Password    string
	SessionBlob string
}

// PublishRequest is the platform-independent description of one delivery.
// Platform-specific options (privacy status, share-to-feed, ...) are passed
// through and ignored by platforms they don't apply to.
type PublishRequest struct {
	MediaURL        string
	Caption         string
	Title           string
	Tags            string
	PostType        string
	PrivacyStatus   string
	DisableComments bool
	ShareToFeed     bool
}

// Publisher performs the actual delivery to one platform.
type Publisher interface {
	Publish(ctx context.Context, creds Credentials, req PublishRequest) error
}

// CredentialProvider resolves working credentials for one account,
// refreshing them when needed and persisting updated session state.
type CredentialProvider interface {
	Resolve(ctx context.Context, accountID int64) (Credentials, error)
}
