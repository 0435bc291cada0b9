package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore
const (
	EnvConsumerKey       = "FOLLOWGRAPH_CONSUMER_KEY"
	EnvConsumerSecret    = "FOLLOWGRAPH_CONSUMER_SECRET"
	EnvAccessToken       = "FOLLOWGRAPH_ACCESS_TOKEN"
	EnvAccessTokenSecret = "FOLLOWGRAPH_ACCESS_TOKEN_SECRET"
)

// EnvironmentStore is a read-only CredentialStore over environment variables
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment credentials under any profile name
// when all four variables are set
func (e *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	creds := &Credentials{
		Profile:           profile,
		ConsumerKey:       os.Getenv(EnvConsumerKey),
		ConsumerSecret:    os.Getenv(EnvConsumerSecret),
		AccessToken:       os.Getenv(EnvAccessToken),
		AccessTokenSecret: os.Getenv(EnvAccessTokenSecret),
		LastModified:      time.Now(),
	}
	if creds.Validate() != nil {
		return nil, ErrCredentialsNotFound
	}
	if creds.Profile == "" {
		creds.Profile = "env"
	}
	return creds, nil
}

// List returns the environment profile if it is complete
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("env")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

// Exists reports whether all four variables are set
func (e *EnvironmentStore) Exists(profile string) bool {
	_, err := e.Retrieve(profile)
	return err == nil
}
