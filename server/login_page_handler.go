package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/star-console/navigation"
	"github.com/jrsteele09/star-console/sessions"
	"github.com/rs/zerolog/log"
)

const MsgPasswordChanged = "Password changed, please sign in again"

// LoginSubmissionHandler processes the login form (POST /auth/login). On failure the user is sent
// back to the login page with the email and destination preserved; the session controller has
// already published the failure message.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		destination := navigation.SafeRedirect(r.FormValue(navigation.RedirectParam))

		if email == "" || password == "" {
			s.feed.Error("Email and password are required")
			redirectSuccess(w, r, loginPage(destination, email))
			return
		}

		if _, err := s.session.Login(r.Context(), sessions.Credentials{Email: email, Password: password}); err != nil {
			log.Info().Err(err).Str("email", email).Msg("Sign-in rejected")
			redirectSuccess(w, r, loginPage(destination, email))
			return
		}

		redirectSuccess(w, r, destination)
	}
}

// LogoutHandler signs out (POST /auth/logout) and returns to the login page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.session.Logout(r.Context(), sessions.LogoutOptions{})
		redirectSuccess(w, r, navigation.PathLogin)
	}
}

// ChangePasswordHandler rotates the password (POST /account/password). The backend revokes the
// session, so success always ends on the login page.
func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		req := sessions.ChangePasswordRequest{
			OldPassword: r.FormValue("oldPassword"),
			NewPassword: r.FormValue("newPassword"),
		}
		if req.OldPassword == "" || req.NewPassword == "" {
			s.feed.Error("Both the current and the new password are required")
			redirectSuccess(w, r, "/account/profile")
			return
		}
		if req.NewPassword != r.FormValue("confirmPassword") {
			s.feed.Error("The new passwords do not match")
			redirectSuccess(w, r, "/account/profile")
			return
		}

		if err := s.session.ChangePassword(r.Context(), req); err != nil {
			if s.sessionLost(err) {
				redirectSuccess(w, r, navigation.LoginRedirect("/account/profile"))
				return
			}
			redirectSuccess(w, r, "/account/profile")
			return
		}

		s.feed.Success(MsgPasswordChanged)
		redirectSuccess(w, r, navigation.PathLogin)
	}
}

func loginPage(destination, email string) string {
	q := url.Values{}
	if destination != navigation.PathProjects {
		q.Set(navigation.RedirectParam, destination)
	}
	if email != "" {
		q.Set("email", email)
	}
	if len(q) == 0 {
		return navigation.PathLogin
	}
	return navigation.PathLogin + "?" + q.Encode()
}
