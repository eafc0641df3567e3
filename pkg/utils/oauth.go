package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/locum-dental/internal/config"
)

const (
	AuthPort     = 3000
	authTimeout  = 5 * time.Minute
	callbackPath = "/oauth/callback"
	tokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// ScopeGmailSend is the only Google scope the application needs
const ScopeGmailSend = "https://www.googleapis.com/auth/gmail.send"

// consentMu serialises consent flows, they all listen on AuthPort
var consentMu sync.Mutex

func requiredScopes() []string {
	return []string{ScopeGmailSend}
}

// GetOAuthConfig creates an OAuth2 config for sending notification emails
func GetOAuthConfig(oauthCfg *config.OAuthClientConfig) (*oauth2.Config, error) {
	raw, err := json.Marshal(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal oauth config: %w", err)
	}

	googleConfig, err := google.ConfigFromJSON(raw, requiredScopes()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}
	googleConfig.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return googleConfig, nil
}

// GetTokenWithFlow returns a gmail token for the environment. A stored token is reused or
// refreshed when possible; otherwise the browser consent flow runs and its token is stored.
func GetTokenWithFlow(ctx context.Context, oauthConfig *oauth2.Config, env string, logger *zap.Logger) (*oauth2.Token, error) {
	consentMu.Lock()
	defer consentMu.Unlock()

	if token := storedToken(ctx, oauthConfig, env, logger); token != nil {
		return token, nil
	}

	logger.Info("No usable gmail token found, starting OAuth consent flow")
	token, err := consent(ctx, oauthConfig)
	if err != nil {
		return nil, err
	}

	if err := SaveTokenToFile(env, token); err != nil {
		logger.Warn("Failed to save gmail token", zap.Error(err))
	}
	return token, nil
}

// storedToken loads the environment's token from disk and refreshes it if needed.
// Returns nil when there is no token or it cannot be used, deleting unusable ones.
func storedToken(ctx context.Context, oauthConfig *oauth2.Config, env string, logger *zap.Logger) *oauth2.Token {
	token, err := LoadTokenFromFile(env)
	if err != nil {
		logger.Warn("Failed to load gmail token", zap.Error(err))
		return nil
	}
	if token == nil {
		return nil
	}

	if !token.Valid() {
		if token.RefreshToken == "" {
			return nil
		}
		refreshed, err := oauthConfig.TokenSource(ctx, token).Token()
		if err != nil {
			logger.Warn("Failed to refresh gmail token", zap.Error(err))
			return nil
		}
		if err := SaveTokenToFile(env, refreshed); err != nil {
			logger.Warn("Failed to save refreshed gmail token", zap.Error(err))
		}
		logger.Debug("Gmail token refreshed")
		token = refreshed
	}

	if err := checkGrantedScopes(ctx, token); err != nil {
		logger.Warn("Stored gmail token is unusable", zap.Error(err))
		_ = DeleteTokenFile(env)
		return nil
	}
	return token
}

// consent runs the browser authorisation and exchanges the returned code
func consent(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	state := uuid.NewString()
	fmt.Printf("\nVisit this URL to authorize notification emails:\n%s\n\n",
		oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline))

	code, err := awaitAuthCode(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := checkGrantedScopes(ctx, token); err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	return token, nil
}

// checkGrantedScopes asks Google's tokeninfo endpoint which scopes the token carries
func checkGrantedScopes(ctx context.Context, token *oauth2.Token) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tokenInfoURL+"?access_token="+token.AccessToken, nil)
	if err != nil {
		return fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("tokeninfo request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var info struct {
		Scope string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("failed to decode tokeninfo response: %w", err)
	}

	return missingScopes(strings.Fields(info.Scope))
}

func missingScopes(granted []string) error {
	var missing []string
	for _, required := range requiredScopes() {
		if !slices.Contains(granted, required) {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("token is missing required scopes: %v", missing)
	}
	return nil
}

type callbackResult struct {
	code string
	err  error
}

// callbackHandler delivers the first code carrying the expected state
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = errors.New("authorization state mismatch")
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			res.err = errors.New("no authorization code received")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
		} else {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><h1>Notifications authorized</h1><p>You can close this window.</p></body></html>`)
		}

		select {
		case results <- res:
		default:
		}
	})
	return mux
}

// awaitAuthCode serves the redirect URI until Google calls back or the flow times out
func awaitAuthCode(ctx context.Context, state string) (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", AuthPort))
	if err != nil {
		return "", fmt.Errorf("failed to listen for callback: %w", err)
	}

	results := make(chan callbackResult, 1)
	server := &http.Server{Handler: callbackHandler(state, results), ReadHeaderTimeout: 10 * time.Second}
	go server.Serve(listener)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	select {
	case res := <-results:
		return res.code, res.err
	case <-timeoutCtx.Done():
		return "", fmt.Errorf("authorization timeout after %v", authTimeout)
	}
}

func tokenFilePath(env string) (string, error) {
	return appPath("tokens", fmt.Sprintf("gmail-%s.json", env))
}

// LoadTokenFromFile loads the gmail OAuth token for the environment, or nil if none is stored
func LoadTokenFromFile(env string) (*oauth2.Token, error) {
	path, err := tokenFilePath(env)
	if err != nil {
		return nil, err
	}

	var token oauth2.Token
	found, err := readJSONFile(path, &token)
	if err != nil || !found {
		return nil, err
	}
	return &token, nil
}

// SaveTokenToFile saves the gmail OAuth token for the environment
func SaveTokenToFile(env string, token *oauth2.Token) error {
	path, err := tokenFilePath(env)
	if err != nil {
		return err
	}
	return writeJSONFile(path, token)
}

// DeleteTokenFile deletes the gmail OAuth token for the environment
func DeleteTokenFile(env string) error {
	path, err := tokenFilePath(env)
	if err != nil {
		return err
	}
	return removeFile(path)
}
