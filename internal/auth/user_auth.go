package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/grvbrk/vidtube_server/internal/models"
	"github.com/grvbrk/vidtube_server/internal/store"
	"github.com/grvbrk/vidtube_server/internal/utils"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	SessionName = "vidtube_session"

	sessionUserID    = "user_id"
	sessionUserEmail = "user_email"
	sessionUserName  = "user_name"
	sessionUserImage = "user_image"
	sessionUserRole  = "user_role"
	sessionState     = "oauth_state"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var ErrNoSession = errors.New("no authenticated session")

type Oauth interface {
	Login(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
}

type GoogleOauth struct {
	Logger      *log.Logger
	Config      *oauth2.Config
	Store       *sessions.CookieStore
	UserStore   store.UserStore
	FrontendURL string
	JWTSecret   []byte
	TokenTTL    time.Duration
}

func NewGoogleOauth(logger *log.Logger, sessionStore *sessions.CookieStore, userStore store.UserStore, clientID, clientSecret, backendURL, frontendURL string, jwtSecret []byte) *GoogleOauth {
	return &GoogleOauth{
		Logger: logger,
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  fmt.Sprintf("%s/auth/google/callback", backendURL),
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.profile", "https://www.googleapis.com/auth/userinfo.email"},
			Endpoint:     google.Endpoint,
		},
		Store:       sessionStore,
		UserStore:   userStore,
		FrontendURL: frontendURL,
		JWTSecret:   jwtSecret,
		TokenTTL:    24 * time.Hour,
	}
}

func (g *GoogleOauth) Login(w http.ResponseWriter, r *http.Request) {
	session, _ := g.Store.Get(r, SessionName)

	state := base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	session.Values[sessionState] = state
	if err := session.Save(r, w); err != nil {
		g.Logger.Println("Error saving oauth state", err)
		utils.WriteError(w, utils.Internal("Internal Server Error", err))
		return
	}

	url := g.Config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (g *GoogleOauth) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := g.Store.Get(r, SessionName)

	for key := range session.Values {
		delete(session.Values, key)
	}

	session.Options.MaxAge = -1

	err := session.Save(r, w)
	if err != nil {
		g.Logger.Println("Error clearing session", err)
	}

	http.Redirect(w, r, g.FrontendURL, http.StatusSeeOther)
}

func (g *GoogleOauth) Callback(w http.ResponseWriter, r *http.Request) {
	session, _ := g.Store.Get(r, SessionName)

	state, _ := session.Values[sessionState].(string)
	if state == "" || r.URL.Query().Get("state") != state {
		g.Logger.Println("OAuth state mismatch")
		utils.WriteError(w, utils.Unauthorized("Invalid OAuth state"))
		return
	}
	delete(session.Values, sessionState)

	code := r.URL.Query().Get("code")
	token, err := g.Config.Exchange(r.Context(), code)
	if err != nil {
		g.Logger.Println("Error exchanging user token", err)
		utils.WriteError(w, utils.Internal("Internal Server Error", err))
		return
	}

	client := g.Config.Client(r.Context(), token)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		g.Logger.Println("Error getting user info", err)
		utils.WriteError(w, utils.Internal("Internal Server Error", err))
		return
	}
	defer resp.Body.Close()

	var userInfo struct {
		GoogleID string `json:"id"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Image    string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		g.Logger.Println("Error decoding user info", err)
		utils.WriteError(w, utils.Internal("Internal Server Error", err))
		return
	}

	user, err := g.findOrCreateUser(r.Context(), userInfo.GoogleID, userInfo.Name, userInfo.Email, userInfo.Image)
	if err != nil {
		g.Logger.Println("Error resolving user", err)
		utils.WriteError(w, utils.Internal("Internal Server Error", err))
		return
	}

	session.Values[sessionUserID] = user.ID.String()
	session.Values[sessionUserEmail] = user.Email
	session.Values[sessionUserName] = user.Name
	session.Values[sessionUserImage] = user.ImageSrc
	session.Values[sessionUserRole] = user.Role

	if err := session.Save(r, w); err != nil {
		g.Logger.Println("Error saving session", err)
		utils.WriteError(w, utils.Internal("Internal Server Error", err))
		return
	}

	http.Redirect(w, r, g.FrontendURL+"/dashboard", http.StatusSeeOther)
}

func (g *GoogleOauth) findOrCreateUser(ctx context.Context, googleID, name, email, image string) (*models.User, error) {
	user, err := g.UserStore.GetUserByGoogleID(ctx, googleID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	newUser := &models.User{
		GoogleID: googleID,
		Name:     name,
		Email:    email,
		ImageSrc: image,
		Role:     models.RoleUser,
	}
	if err := g.UserStore.CreateUser(ctx, newUser); err != nil {
		return nil, err
	}

	g.Logger.Printf("Created user %s for %s", newUser.ID, newUser.Email)
	return newUser, nil
}

func (g *GoogleOauth) AuthUser(w http.ResponseWriter, r *http.Request) {
	user, err := g.SessionUser(r)
	if err != nil {
		g.Logger.Println("Error reading session user:", err)
		utils.WriteError(w, utils.Unauthorized("Not Authenticated"))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, user, "User fetched successfully")
}

// Token exchanges a valid session for a bearer token usable by API clients.
func (g *GoogleOauth) Token(w http.ResponseWriter, r *http.Request) {
	user, err := g.SessionUser(r)
	if err != nil {
		utils.WriteError(w, utils.Unauthorized("Not Authenticated"))
		return
	}

	token, expiresAt, err := NewToken(g.JWTSecret, user, g.TokenTTL)
	if err != nil {
		g.Logger.Println("Error issuing token:", err)
		utils.WriteError(w, utils.Internal("Internal Server Error", err))
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.Envelope{
		"token":     token,
		"expiresAt": expiresAt,
	}, "Token issued successfully")
}

// SessionUser reads the caller identity stored in the session cookie.
func (g *GoogleOauth) SessionUser(r *http.Request) (*models.User, error) {
	return UserFromSession(g.Store, r)
}

func UserFromSession(sessionStore sessions.Store, r *http.Request) (*models.User, error) {
	session, err := sessionStore.Get(r, SessionName)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.IsNew {
		return nil, ErrNoSession
	}

	userEmail, emailOk := session.Values[sessionUserEmail].(string)
	userIDStr, idOk := session.Values[sessionUserID].(string)
	if !emailOk || !idOk || userEmail == "" || userIDStr == "" {
		return nil, ErrNoSession
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}

	role, _ := session.Values[sessionUserRole].(string)
	if role == "" {
		role = models.RoleUser
	}
	name, _ := session.Values[sessionUserName].(string)
	image, _ := session.Values[sessionUserImage].(string)

	return &models.User{
		ID:       userID,
		Email:    userEmail,
		Name:     name,
		ImageSrc: image,
		Role:     role,
	}, nil
}
