package session

import (
	"github.com/kbukum/authkit/pkce"
	"github.com/kbukum/authkit/token"
	"github.com/kbukum/authkit/validation"
)

// AuthState is a snapshot of the session. Token and Error are empty when unset.
type AuthState struct {
	User            *token.User `json:"user"`
	Token           string      `json:"token,omitempty"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsLoading       bool        `json:"isLoading"`
	Error           string      `json:"error,omitempty"`
}

// clone returns a copy that shares nothing mutable with s.
func (s AuthState) clone() AuthState {
	if s.User != nil {
		u := *s.User
		u.Scopes = append([]string(nil), s.User.Scopes...)
		s.User = &u
	}
	return s
}

// Credentials are sent to the login endpoint.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	TenantID string `json:"tenantId,omitempty"`
}

// SignupData describes a new account.
type SignupData struct {
	Email       string `json:"email" validate:"required"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
	TenantID    string `json:"tenantId,omitempty"`
}

// signupRequest is the wire form of SignupData.
type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	TenantID    string `json:"tenant_id,omitempty"`
}

func (d SignupData) wire() signupRequest {
	return signupRequest{
		Email:       d.Email,
		Password:    d.Password,
		DisplayName: d.DisplayName,
		TenantID:    d.TenantID,
	}
}

// Response is the outcome of Login or Signup.
type Response struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// apiResponse is the body returned by the login and signup endpoints.
type apiResponse struct {
	Success      bool   `json:"success"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	Error        string `json:"error"`
}

// SignupForm holds interactive signup input before it becomes SignupData.
type SignupForm struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	DisplayName     string `json:"display_name"`
	TenantID        string `json:"tenant_id"`
}

// Validate checks the password length and that the confirmation matches.
func (f SignupForm) Validate() error {
	return validation.Validate(f)
}

// SignupData converts the form into the data submitted to Signup.
func (f SignupForm) SignupData() SignupData {
	return SignupData{
		Email:       f.Email,
		Password:    f.Password,
		DisplayName: f.DisplayName,
		TenantID:    f.TenantID,
	}
}

// ProviderConfig is per-provider OAuth client metadata. It is accepted in
// configuration but not yet sent with authorization requests.
type ProviderConfig struct {
	ClientID    string `mapstructure:"client_id"`
	RedirectURI string `mapstructure:"redirect_uri"`
}

// Config configures a Controller.
type Config struct {
	// APIURL is the base URL of the auth API.
	APIURL string `mapstructure:"api_url"`
	// OAuthLoginPath is appended to APIURL to form the OAuth login endpoint.
	OAuthLoginPath string `mapstructure:"oauth_login_path"`
	// AutoRefresh is accepted for compatibility. Proactive refresh is not
	// implemented; RefreshToken only checks validity.
	AutoRefresh bool `mapstructure:"auto_refresh"`
	// OAuth holds per-provider client metadata.
	OAuth map[pkce.Provider]ProviderConfig `mapstructure:"oauth"`

	// CurrentPath returns the location OAuth sign-in should return to.
	// Defaults to "/".
	CurrentPath func() string `mapstructure:"-"`
	// OnAuthChange is called with the new user (nil when signed out) whenever
	// the resolved identity changes.
	OnAuthChange func(user *token.User) `mapstructure:"-"`
}

// DefaultOAuthLoginPath is the OAuth login route of the auth API.
const DefaultOAuthLoginPath = "/oauth/login"

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.OAuthLoginPath == "" {
		c.OAuthLoginPath = DefaultOAuthLoginPath
	}
}
