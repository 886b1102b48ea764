package callback

import (
	"context"
	"net/url"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/pkce"
	"github.com/kbukum/authkit/tokenstore"
)

// DefaultReturnPath is used when no flow state survives.
const DefaultReturnPath = "/"

// Query parameters set by the auth API on the callback URL.
const (
	ParamToken = "token"
	ParamError = "error"
)

// Result is the outcome of one callback.
type Result struct {
	ReturnPath string        `json:"returnPath"`
	Provider   pkce.Provider `json:"provider,omitempty"`
	Token      string        `json:"-"`
	Error      string        `json:"error,omitempty"`
}

// OK reports whether the callback carried a token and no error.
func (r Result) OK() bool { return r.Token != "" && r.Error == "" }

// Handler processes callback query parameters.
type Handler struct {
	engine  *pkce.Engine
	storage tokenstore.Storage
	log     *logger.Logger
}

// NewHandler creates a Handler that consumes flow state from engine and
// writes tokens to storage.
func NewHandler(engine *pkce.Engine, storage tokenstore.Storage, log *logger.Logger) *Handler {
	return &Handler{engine: engine, storage: storage, log: logger.OrDefault(log, "callback")}
}

// Handle consumes the pending flow state and persists the token carried by
// query, if any. An error parameter is reported as is; a token present
// alongside it is still stored.
func (h *Handler) Handle(ctx context.Context, query url.Values) Result {
	res := Result{ReturnPath: DefaultReturnPath}

	if state := h.engine.RetrieveFlowState(ctx); state != nil {
		if state.ReturnPath != "" {
			res.ReturnPath = state.ReturnPath
		}
		res.Provider = state.Provider
	}

	if tok := query.Get(ParamToken); tok != "" {
		h.storage.SetToken(tok)
		res.Token = tok
	}
	res.Error = query.Get(ParamError)

	fields := logger.Fields(
		logger.FieldProvider, string(res.Provider),
		logger.FieldPath, res.ReturnPath,
		logger.FieldToken, logger.Fingerprint(res.Token),
	)
	if res.Error != "" {
		fields[logger.FieldError] = res.Error
		h.log.Warn("oauth callback reported an error", fields)
	} else {
		h.log.Info("oauth callback received", fields)
	}
	return res
}
