package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth      *AuthHandler
	Meetings  *MeetingHandler
	Tasks     *TaskHandler
	Reminders *ReminderHandler
	Reviews   *ReviewHandler
	Minutes   *MinutesHandler
	Calendar  *CalendarHandler

	// Session guards every route except /sessions and /healthz.
	Session    func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	protect := func(h http.HandlerFunc) http.Handler {
		if cfg.Session == nil {
			return h
		}
		return cfg.Session(h)
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		health(w, r)
	})

	if cfg.Auth != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.CreateSession(w, r)
		})
	}

	if cfg.Meetings != nil {
		mux.Handle("/meetings", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Meetings.List(w, r)
			case http.MethodPost:
				cfg.Meetings.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/meetings/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResourcePath(r.URL.Path, "/meetings/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			if id == "conflicts" && action == "" {
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Meetings.CheckConflicts(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Meetings.Get(w, r)
				case http.MethodPut:
					cfg.Meetings.Update(w, r)
				case http.MethodDelete:
					cfg.Meetings.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "cancel":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				cfg.Meetings.Cancel(w, r)
			case "conference":
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Meetings.Conference(w, r)
			case "summary", "action-items":
				if cfg.Minutes == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				if action == "summary" {
					cfg.Minutes.Summary(w, r)
				} else {
					cfg.Minutes.ActionItems(w, r)
				}
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Minutes != nil {
		mux.Handle("/translations", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Minutes.Translate(w, r)
		}))
	}

	if cfg.Calendar != nil {
		mux.Handle("/calendar.ics", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Feed(w, r)
		}))
	}

	if cfg.Tasks != nil {
		mux.Handle("/tasks", protect(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Tasks.List(w, r)
			case http.MethodPost:
				cfg.Tasks.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/tasks/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResourcePath(r.URL.Path, "/tasks/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			if action == "" && (id == "overdue" || id == "reminder-candidates") {
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				if id == "overdue" {
					cfg.Tasks.Overdue(w, r)
				} else {
					cfg.Tasks.ReminderCandidates(w, r)
				}
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Tasks.Get(w, r)
				case http.MethodPut:
					cfg.Tasks.Update(w, r)
				case http.MethodDelete:
					cfg.Tasks.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
				}
			case "complete", "reminder", "escalation":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				switch {
				case action == "complete":
					cfg.Tasks.Complete(w, r)
				case cfg.Reminders == nil:
					http.NotFound(w, r)
				case action == "reminder":
					cfg.Reminders.DraftReminder(w, r)
				default:
					cfg.Reminders.DraftEscalation(w, r)
				}
			default:
				http.NotFound(w, r)
			}
		}))
	}

	if cfg.Reminders != nil {
		mux.Handle("/reminders/run", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Reminders.Run(w, r)
		}))
	}

	if cfg.Reviews != nil {
		mux.Handle("/reviews", protect(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Reviews.List(w, r)
		}))
		mux.Handle("/reviews/", protect(func(w http.ResponseWriter, r *http.Request) {
			id, action, ok := splitResourcePath(r.URL.Path, "/reviews/")
			if !ok {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			switch action {
			case "":
				switch r.Method {
				case http.MethodGet:
					cfg.Reviews.Get(w, r)
				case http.MethodDelete:
					cfg.Reviews.Delete(w, r)
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodDelete)
				}
			case "approve", "reject":
				if r.Method != http.MethodPost {
					methodNotAllowed(w, http.MethodPost)
					return
				}
				if action == "approve" {
					cfg.Reviews.Approve(w, r)
				} else {
					cfg.Reviews.Reject(w, r)
				}
			default:
				http.NotFound(w, r)
			}
		}))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// splitResourcePath turns "/tasks/{id}" or "/tasks/{id}/{action}" into its parts.
func splitResourcePath(path, prefix string) (id, action string, ok bool) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", true
	case 2:
		return parts[0], parts[1], parts[0] != ""
	default:
		return "", "", false
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_, _ = w.Write([]byte(`{"message":"method not allowed"}` + "\n"))
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}
