package gcs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURLUsesDefaultBucket(t *testing.T) {
	client := &Client{defaultBucket: "dungdata-media"}

	got := client.PublicURL("media/1700000000000-bao-cao.pdf")
	assert.Equal(t, "https://storage.googleapis.com/dungdata-media/media/1700000000000-bao-cao.pdf", got)

	var nilClient *Client
	assert.Empty(t, nilClient.PublicURL("anything"))
}

func TestTokenSourceCachesUntilNearExpiry(t *testing.T) {
	calls := 0
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			calls++
			return "tok", time.Now().Add(time.Hour), nil
		},
	}

	first, err := ts.Token(context.Background())
	require.NoError(t, err)
	second, err := ts.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "cached token must not refetch")
}

func TestTokenSourceRefreshesExpiredToken(t *testing.T) {
	calls := 0
	ts := &tokenSource{
		token:  "stale",
		expiry: time.Now().Add(-time.Minute),
		fetch: func(context.Context) (string, time.Time, error) {
			calls++
			return "fresh", time.Now().Add(time.Hour), nil
		},
	}

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", token)
	assert.Equal(t, 1, calls)
}

func TestTokenSourcePropagatesFetchError(t *testing.T) {
	ts := &tokenSource{
		fetch: func(context.Context) (string, time.Time, error) {
			return "", time.Time{}, errors.New("metadata unreachable")
		},
	}

	_, err := ts.Token(context.Background())
	require.Error(t, err)
}

func TestServiceAccountTokenSourceRejectsBadCredentials(t *testing.T) {
	_, err := newServiceAccountTokenSource(nil, "not json")
	require.Error(t, err)

	_, err = newServiceAccountTokenSource(nil, `{"client_email":"","private_key":""}`)
	require.Error(t, err)
}

func TestParsePrivateKeyRejectsGarbage(t *testing.T) {
	_, err := parsePrivateKey("not a pem block")
	require.Error(t, err)
}

func TestUploadAndDeleteRequireObjectKey(t *testing.T) {
	client := &Client{defaultBucket: "dungdata-media", tokenSource: &tokenSource{}}

	err := client.Upload(context.Background(), "  ", "image/png", nil)
	require.Error(t, err)
	err = client.Delete(context.Background(), "")
	require.Error(t, err)
}
