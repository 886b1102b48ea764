package authtest

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/authkit/pkce"
)

const bodyKey = "authtest.body"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenantId"`
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	TenantID    string `json:"tenant_id"`
}

func (s *Server) routes(e *gin.Engine) {
	e.Use(s.intercept)
	e.POST(PathLogin, s.login)
	e.POST(PathSignup, s.signup)
	e.POST(PathLogout, s.logout)
	e.GET(PathOAuthLogin, s.oauthLogin)
}

func bindBody(c *gin.Context, v any) bool {
	raw, _ := c.Get(bodyKey)
	body, _ := raw.([]byte)
	if err := json.Unmarshal(body, v); err != nil {
		reject(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func reject(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		reject(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if !ok || s.hasher.Verify(req.Password, acct.hash) != nil {
		reject(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if req.TenantID != "" && acct.TenantID != "" && req.TenantID != acct.TenantID {
		reject(c, http.StatusForbidden, "User does not belong to tenant")
		return
	}
	s.issue(c, http.StatusOK, acct.User)
}

func (s *Server) signup(c *gin.Context) {
	var req signupRequest
	if !bindBody(c, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		reject(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := s.AddUser(User{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		TenantID:    req.TenantID,
		Role:        "member",
	})
	if err != nil {
		reject(c, http.StatusConflict, "Email already registered")
		return
	}
	s.issue(c, http.StatusCreated, u)
}

func (s *Server) issue(c *gin.Context, status int, u User) {
	tok, err := s.TokenFor(u, s.tokenTTL)
	if err != nil {
		reject(c, http.StatusInternalServerError, "Could not issue token")
		return
	}
	sid := uuid.NewString()
	s.mu.Lock()
	s.sessions[sid] = u.ID
	s.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sid, int(s.tokenTTL.Seconds()), "/", "", false, true)
	c.JSON(status, gin.H{
		"success":       true,
		"token":         tok,
		"refresh_token": uuid.NewString(),
	})
}

func (s *Server) logout(c *gin.Context) {
	if sid, err := c.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, sid)
		s.mu.Unlock()
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// oauthLogin skips the provider round trip and sends the browser straight
// back to redirect_uri with a token for <provider>-user@example.com.
func (s *Server) oauthLogin(c *gin.Context) {
	target, err := url.Parse(c.Query("redirect_uri"))
	if err != nil || !target.IsAbs() {
		reject(c, http.StatusBadRequest, "redirect_uri must be an absolute URL")
		return
	}

	q := target.Query()
	provider, err := pkce.ParseProvider(c.Query("provider"))
	if err != nil {
		q.Set("error", "unsupported_provider")
		target.RawQuery = q.Encode()
		c.Redirect(http.StatusFound, target.String())
		return
	}

	email := string(provider) + "-user@example.com"
	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	u := User{ID: uuid.NewString(), Email: email, Role: "member"}
	if ok {
		u = acct.User
	}

	tok, err := s.TokenFor(u, s.tokenTTL)
	if err != nil {
		q.Set("error", "server_error")
	} else {
		q.Set("token", tok)
	}
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}
