// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/loftwork/loftwork/internal/app/store/oauthstate"
	"github.com/loftwork/loftwork/internal/app/system/auditlog"
	"github.com/loftwork/loftwork/internal/app/system/identity"
	"github.com/loftwork/loftwork/internal/app/system/timeouts"
	"github.com/loftwork/loftwork/internal/app/system/tokens"
	"github.com/loftwork/loftwork/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// Handler handles Google OAuth authentication. The flow ends with a token
// handoff: the browser is redirected to the frontend with the bearer token
// in the URL fragment, which never reaches a server log.
type Handler struct {
	Identity   *identity.Resolver
	Tokens     *tokens.Service
	StateStore *oauthstate.Store
	Audit      *auditlog.Logger
	Log        *zap.Logger

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://api.loftwork.dev/auth/google/callback"

	// FrontendURL receives the post-login redirect with #token=...
	FrontendURL string

	// cookies signs the state cookie that binds the callback to the
	// browser that started the flow.
	cookies *securecookie.SecureCookie
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	res *identity.Resolver,
	tok *tokens.Service,
	stateStore *oauthstate.Store,
	audit *auditlog.Logger,
	clientID, clientSecret, baseURL, frontendURL, stateSecret string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Identity:     res,
		Tokens:       tok,
		StateStore:   stateStore,
		Audit:        audit,
		Log:          logger,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		FrontendURL:  frontendURL,
		cookies:      securecookie.New([]byte(stateSecret), nil),
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.redirectToFrontend(w, r, "error=google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.redirectToFrontend(w, r, "error=internal")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(stateTTL)
	if err := h.StateStore.Save(ctx, state, returnURL, expiresAt); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.redirectToFrontend(w, r, "error=internal")
		return
	}

	// A signed copy of the state rides along as a cookie, so the callback
	// can only be completed by the browser that started the flow.
	encoded, err := h.cookies.Encode(stateCookieName, state)
	if err != nil {
		h.Log.Error("failed to encode state cookie", zap.Error(err))
		h.redirectToFrontend(w, r, "error=internal")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", url),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Exchanges the code, resolves the federated identity, issues a bearer token,  |
| and hands it to the frontend in the URL fragment.                            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.redirectToFrontend(w, r, "error=google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.redirectToFrontend(w, r, "error=invalid_state")
		return
	}

	// The cookie and the query state must agree before we touch the store.
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		h.Log.Warn("missing OAuth state cookie")
		h.redirectToFrontend(w, r, "error=invalid_state")
		return
	}
	var cookieState string
	if err := h.cookies.Decode(stateCookieName, cookie.Value, &cookieState); err != nil || cookieState != state {
		h.Log.Warn("OAuth state cookie mismatch")
		h.redirectToFrontend(w, r, "error=invalid_state")
		return
	}
	clearCookie(w)

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.redirectToFrontend(w, r, "error=internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.redirectToFrontend(w, r, "error=invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.redirectToFrontend(w, r, "error=invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.redirectToFrontend(w, r, "error=token_exchange")
		return
	}

	googleUser, err := fetchGoogleUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.redirectToFrontend(w, r, "error=user_info")
		return
	}
	if !googleUser.EmailVerified {
		h.Log.Warn("Google account email not verified",
			zap.String("google_id", googleUser.ID))
		h.redirectToFrontend(w, r, "error=email_unverified")
		return
	}

	ctxDB, cancelDB := context.WithTimeout(ctx, timeouts.Medium())
	defer cancelDB()

	user, err := h.Identity.Federated(ctxDB, models.ProviderGoogle, googleUser.ID, googleUser.Email, googleUser.Name)
	if err != nil {
		h.Log.Error("failed to resolve federated identity", zap.Error(err))
		h.redirectToFrontend(w, r, "error=internal")
		return
	}

	bearer, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.Log.Error("failed to issue token", zap.Error(err))
		h.redirectToFrontend(w, r, "error=internal")
		return
	}

	h.Log.Info("user logged in via Google OAuth",
		zap.String("user_id", user.ID.Hex()))
	h.Audit.FederatedLogin(ctx, r, user.ID, "google")

	safePath := urlutil.SafeReturn(returnURL, "", "/")
	dest := fmt.Sprintf("%s%s#token=%s", h.FrontendURL, safePath, bearer)
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// fetchGoogleUserInfo retrieves user information from Google's userinfo endpoint.
func fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

func (h *Handler) redirectToFrontend(w http.ResponseWriter, r *http.Request, query string) {
	http.Redirect(w, r, h.FrontendURL+"/login?"+query, http.StatusSeeOther)
}

func clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
