package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followgraph/pkg/config"
)

func sampleCredentials(profile string) *Credentials {
	return &Credentials{
		Profile:           profile,
		ConsumerKey:       "consumer_key_12345",
		ConsumerSecret:    "consumer_secret_67890",
		AccessToken:       "1234-access_token_abcdef",
		AccessTokenSecret: "access_token_secret_xyz",
	}
}

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	creds := sampleCredentials("research")
	require.NoError(t, manager.Store(creds))
	assert.False(t, creds.LastModified.IsZero())

	retrieved, err := manager.Retrieve("research")
	require.NoError(t, err)
	assert.Equal(t, creds.ConsumerKey, retrieved.ConsumerKey)
	assert.Equal(t, creds.AccessTokenSecret, retrieved.AccessTokenSecret)

	all, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, manager.Delete("research"))
	_, err = manager.Retrieve("research")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Equal(t, 0, mockStore.Count())
}

func TestStoreDefaultsProfileAndValidates(t *testing.T) {
	manager, mockStore := NewMockManager()

	creds := sampleCredentials("")
	require.NoError(t, manager.Store(creds))
	assert.True(t, mockStore.Exists(DefaultProfile))

	retrieved, err := manager.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfile, retrieved.Profile)

	incomplete := sampleCredentials("partial")
	incomplete.AccessTokenSecret = ""
	err = manager.Store(incomplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token secret")
	assert.False(t, mockStore.Exists("partial"))
}

func TestStoreFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keychain locked")
	working := NewMockStore()

	manager := NewManagerWithStores(broken, working)
	require.NoError(t, manager.Store(sampleCredentials("p")))
	assert.Equal(t, 0, broken.Count())
	assert.Equal(t, 1, working.Count())
}

func TestListSortedAndNewestWins(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()

	older := sampleCredentials("b")
	newer := sampleCredentials("b")
	newer.ConsumerKey = "rotated_consumer_key"
	newer.LastModified = older.LastModified.Add(1)
	require.NoError(t, first.Store(older))
	require.NoError(t, second.Store(newer))
	require.NoError(t, second.Store(sampleCredentials("a")))

	all, err := NewManagerWithStores(first, second).List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Profile)
	assert.Equal(t, "rotated_consumer_key", all[1].ConsumerKey)
}

func TestSanitize(t *testing.T) {
	creds := sampleCredentials("p")
	masked := Sanitize(creds)

	assert.Equal(t, "p", masked.Profile)
	assert.Equal(t, "cons...2345", masked.ConsumerKey)
	assert.NotEqual(t, creds.AccessTokenSecret, masked.AccessTokenSecret)
	assert.Equal(t, "********", maskString("short"))
	assert.Nil(t, Sanitize(nil))
}

func TestApplyTo(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Twitter.AccessToken = "explicit"

	sampleCredentials("p").ApplyTo(cfg)

	assert.Equal(t, "consumer_key_12345", cfg.Twitter.ConsumerKey)
	assert.Equal(t, "explicit", cfg.Twitter.AccessToken)
	assert.NoError(t, cfg.ValidateCredentials())
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.enc")

	store, err := NewEncryptedFileStoreWithPassphrase(path, "test_passphrase_123")
	require.NoError(t, err)

	creds := sampleCredentials("encrypted")
	require.NoError(t, store.Store(creds))

	retrieved, err := store.Retrieve("encrypted")
	require.NoError(t, err)
	assert.Equal(t, creds.ConsumerSecret, retrieved.ConsumerSecret)
	assert.True(t, store.Exists("encrypted"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte(creds.ConsumerSecret)), "file holds plaintext secret")
	assert.False(t, bytes.Contains(content, []byte(creds.AccessTokenSecret)), "file holds plaintext secret")

	wrongKey, err := NewEncryptedFileStoreWithPassphrase(path, "another passphrase")
	require.NoError(t, err)
	_, err = wrongKey.Retrieve("encrypted")
	assert.Error(t, err)

	require.NoError(t, store.Delete("encrypted"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file removed with last profile")
	assert.ErrorIs(t, store.Delete("encrypted"), ErrCredentialsNotFound)
}

func TestEncryptedFileStoreMultipleProfiles(t *testing.T) {
	store, err := NewEncryptedFileStoreWithPassphrase(filepath.Join(t.TempDir(), "c.enc"), "pw")
	require.NoError(t, err)

	require.NoError(t, store.Store(sampleCredentials("one")))
	require.NoError(t, store.Store(sampleCredentials("two")))
	require.NoError(t, store.Delete("one"))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "two", all[0].Profile)
}

func TestEncryptedFileStoreFromEnvPassphrase(t *testing.T) {
	t.Setenv("FOLLOWGRAPH_PASSPHRASE", "from_env")
	path := filepath.Join(t.TempDir(), "c.enc")

	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(sampleCredentials("p")))

	reopened, err := NewEncryptedFileStoreWithPassphrase(path, "from_env")
	require.NoError(t, err)
	assert.True(t, reopened.Exists("p"))
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Setenv(EnvConsumerKey, "ck")
	t.Setenv(EnvConsumerSecret, "cs")
	t.Setenv(EnvAccessToken, "at")
	t.Setenv(EnvAccessTokenSecret, "")

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound, "incomplete set is not usable")

	t.Setenv(EnvAccessTokenSecret, "ats")
	creds, err := store.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "env", creds.Profile)
	assert.Equal(t, "ats", creds.AccessTokenSecret)

	assert.ErrorIs(t, store.Store(creds), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("env"), ErrStoreUnavailable)
}

func TestMockStoreErrorInjection(t *testing.T) {
	store := NewMockStore()
	store.ListError = errors.New("injected error")

	_, err := store.List()
	assert.EqualError(t, err, "injected error")
}

func TestWriteCredentialGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteCredentialGuide(&buf)
	out := buf.String()
	assert.True(t, strings.Contains(out, "FOLLOWGRAPH_ACCESS_TOKEN_SECRET"))
	assert.Contains(t, out, "consumer secret")
}
