package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/ArionMiles/spendview/pkg/logging"
)

const secretJSON = `{"installed":{
	"client_id":"id.apps.googleusercontent.com",
	"client_secret":"secret",
	"auth_uri":"https://accounts.google.com/o/oauth2/auth",
	"token_uri":"https://oauth2.googleapis.com/token",
	"redirect_uris":["http://localhost"]
}}`

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, SaveToken(path, tok))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, tok.AccessToken, got.AccessToken)
	assert.Equal(t, tok.RefreshToken, got.RefreshToken)
	assert.True(t, tok.Expiry.Equal(got.Expiry))
}

func TestLoadToken_Errors(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadToken(bad)
	assert.Error(t, err)
}

func TestNewFromJSON_UsesCachedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken: "cached",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}))

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	t.Cleanup(srv.Close)

	httpClient, err := NewFromJSON(context.Background(), []byte(secretJSON), Config{TokenFile: path}, logging.Discard())
	require.NoError(t, err)

	resp, err := httpClient.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer cached", gotAuth)
}

func TestNewFromJSON_InvalidSecret(t *testing.T) {
	_, err := NewFromJSON(context.Background(), []byte("not json"), Config{}, logging.Discard())
	assert.Error(t, err)
}

func TestNew_MissingSecretFile(t *testing.T) {
	_, err := New(context.Background(), Config{SecretFile: filepath.Join(t.TempDir(), "nope.json")}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  bool
	}{
		{name: "success", query: "?state=s1&code=abc", wantCode: "abc"},
		{name: "state mismatch", query: "?state=other&code=abc", wantErr: true},
		{name: "provider error", query: "?state=s1&error=access_denied", wantErr: true},
		{name: "missing code", query: "?state=s1", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codeChan := make(chan string, 1)
			errChan := make(chan error, 1)
			h := callbackHandler("s1", codeChan, errChan)

			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, callbackPath+tc.query, nil))

			if tc.wantErr {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Len(t, errChan, 1)
				assert.Empty(t, codeChan)
				return
			}
			assert.Equal(t, http.StatusOK, rec.Code)
			require.Len(t, codeChan, 1)
			assert.Equal(t, tc.wantCode, <-codeChan)
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := generateState()
	require.NoError(t, err)
	b, err := generateState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 44)
}
