package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kbukum/authkit/session"
	"github.com/kbukum/authkit/token"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(10)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// statusView is the JSON form of a session.
type statusView struct {
	Authenticated bool        `json:"authenticated"`
	User          *token.User `json:"user,omitempty"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
	Error         string      `json:"error,omitempty"`
}

func newStatusView(st session.AuthState) statusView {
	v := statusView{Authenticated: st.IsAuthenticated, User: st.User, Error: st.Error}
	if exp, ok := token.ExpiresAt(st.Token); ok && st.IsAuthenticated {
		v.ExpiresAt = &exp
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderStatus(w io.Writer, st session.AuthState) {
	v := newStatusView(st)
	if !v.Authenticated {
		line := warnStyle.Render("Not signed in")
		if v.Error != "" {
			line += "\n" + errStyle.Render(v.Error)
		}
		fmt.Fprintln(w, boxStyle.Render(line))
		return
	}

	rows := []string{okStyle.Render("Signed in")}
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, labelStyle.Render(label)+value)
		}
	}
	add("User", v.User.ID)
	add("Email", v.User.Email)
	add("Tenant", v.User.TenantID)
	add("Role", v.User.Role)
	add("Scopes", strings.Join(v.User.Scopes, ", "))
	if v.ExpiresAt != nil {
		left := time.Until(*v.ExpiresAt).Truncate(time.Second)
		add("Expires", fmt.Sprintf("%s (in %s)", v.ExpiresAt.Local().Format(time.RFC1123), left))
	}
	fmt.Fprintln(w, boxStyle.Render(strings.Join(rows, "\n")))
}
