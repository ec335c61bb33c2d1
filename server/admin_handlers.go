package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/star-console/admin"
)

// SyncStarsHandler queues a star synchronisation (POST /admin/sync-stars).
func (s *Server) SyncStarsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		req := admin.SyncStarsRequest{
			Mode:     admin.SyncIncremental,
			PerPage:  formInt(r, "perPage"),
			MaxPages: formInt(r, "maxPages"),
			Note:     strings.TrimSpace(r.PostFormValue("note")),
		}
		if r.PostFormValue("mode") == string(admin.SyncFull) {
			req.Mode = admin.SyncFull
		}
		if v := formBool(r, "softDeleteUnstarred"); v != nil {
			req.SoftDeleteUnstarred = v
		}

		job, err := s.admin.SyncStars(r.Context(), req)
		if err != nil {
			s.actionFailed(w, r, err, "/admin/sync-stars")
			return
		}
		s.feed.Success("Star sync queued as job " + job.JobID)
		redirectSuccess(w, r, "/admin/sync-stars")
	}
}

// AIEnqueueHandler queues AI summaries for the listed projects (POST /admin/ai/enqueue).
func (s *Server) AIEnqueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		ids := strings.FieldsFunc(r.PostFormValue("projectIds"), func(c rune) bool {
			return c == ',' || c == ' ' || c == '\n' || c == '\r' || c == '\t'
		})
		if len(ids) == 0 {
			s.feed.Error("List at least one project id")
			redirectSuccess(w, r, "/admin/ai")
			return
		}

		req := admin.SummaryRequest{ProjectIDs: ids, Note: strings.TrimSpace(r.PostFormValue("note"))}
		if style, lang := r.PostFormValue("style"), r.PostFormValue("lang"); style != "" || lang != "" {
			req.Options = &admin.SummaryOptions{Style: style, Lang: lang}
		}

		res, err := s.admin.EnqueueSummaries(r.Context(), req)
		if err != nil {
			s.actionFailed(w, r, err, "/admin/ai")
			return
		}
		s.feed.Success(strconv.Itoa(res.Enqueued) + " summaries queued")
		redirectSuccess(w, r, "/admin/ai")
	}
}

// AISweepHandler queues a sweep over stale summaries (POST /admin/ai/sweep).
func (s *Server) AISweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		req := admin.SweepRequest{
			Limit:             formInt(r, "limit"),
			Lang:              r.PostFormValue("lang"),
			Model:             r.PostFormValue("model"),
			StaleDaysOverride: formInt(r, "staleDaysOverride"),
		}
		if force := formBool(r, "force"); force != nil {
			req.Force = *force
		}

		res, err := s.admin.EnqueueSweep(r.Context(), req)
		if err != nil {
			s.actionFailed(w, r, err, "/admin/ai")
			return
		}
		s.feed.Success(strconv.Itoa(res.Enqueued) + " of " + strconv.Itoa(res.Total) + " summaries queued")
		redirectSuccess(w, r, "/admin/ai")
	}
}

// RunMaintenanceHandler queues the maintenance job (POST /admin/maintenance/run).
func (s *Server) RunMaintenanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := s.admin.RunMaintenance(r.Context())
		if err != nil {
			s.actionFailed(w, r, err, "/admin/maintenance")
			return
		}
		s.feed.Success("Maintenance queued as job " + job.JobID)
		redirectSuccess(w, r, "/admin/maintenance")
	}
}

func formInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue(key)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
