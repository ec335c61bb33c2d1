package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/star-console/internal/utils"
	"github.com/jrsteele09/star-console/navigation"
	"github.com/jrsteele09/star-console/projects"
	"github.com/jrsteele09/star-console/tags"
)

// ProjectUpdateHandler saves the project form (POST /projects/{id}). Only submitted fields change.
func (s *Server) ProjectUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		id := r.PathValue("id")
		back := backTo(r, s.router.PathFor(navigation.RouteProjectDetail, map[string]string{"id": id}))

		req := projects.UpdateRequest{
			Favorite: formBool(r, "favorite"),
			Pinned:   formBool(r, "pinned"),
			Archived: formBool(r, "archived"),
		}
		if _, ok := r.PostForm["notes"]; ok {
			req.Notes = utils.Ptr(r.PostFormValue("notes"))
		}
		if raw := strings.TrimSpace(r.PostFormValue("score")); raw != "" {
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				s.feed.Error("Score must be a number")
				redirectSuccess(w, r, back)
				return
			}
			req.Score = &score
		}

		if _, err := s.projects.Update(r.Context(), id, req); err != nil {
			s.actionFailed(w, r, err, back)
			return
		}
		s.feed.Success("Project saved")
		redirectSuccess(w, r, back)
	}
}

// TagCreateHandler creates a tag (POST /tags).
func (s *Server) TagCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		name := strings.TrimSpace(r.PostFormValue("name"))
		if name == "" {
			s.feed.Error("A tag needs a name")
			redirectSuccess(w, r, "/tags")
			return
		}
		payload := tags.Payload{Name: name}
		if desc := strings.TrimSpace(r.PostFormValue("description")); desc != "" {
			payload.Description = &desc
		}

		tag, err := s.tags.Create(r.Context(), payload)
		if err != nil {
			s.actionFailed(w, r, err, "/tags")
			return
		}
		s.feed.Success("Tag created")
		redirectSuccess(w, r, s.router.PathFor(navigation.RouteTagDetail, map[string]string{"id": tag.ID}))
	}
}

// TagDeleteHandler deletes a tag (POST /tags/{id}/delete).
func (s *Server) TagDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.tags.Delete(r.Context(), r.PathValue("id")); err != nil {
			s.actionFailed(w, r, err, "/tags")
			return
		}
		s.feed.Success("Tag deleted")
		redirectSuccess(w, r, "/tags")
	}
}

// actionFailed sends the user to sign in again when the session ended, otherwise back to
// the page; the request pipeline has already reported the failure.
func (s *Server) actionFailed(w http.ResponseWriter, r *http.Request, err error, back string) {
	if s.sessionLost(err) {
		redirectSuccess(w, r, navigation.LoginRedirect(back))
		return
	}
	redirectSuccess(w, r, back)
}

func formBool(r *http.Request, key string) *bool {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	b, err := strconv.ParseBool(r.PostFormValue(key))
	if err != nil {
		return nil
	}
	return &b
}
