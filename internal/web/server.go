package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/court-scheduler/internal/auth"
	"github.com/example/court-scheduler/internal/db"
	"github.com/example/court-scheduler/internal/scheduler"
	"github.com/example/court-scheduler/internal/store"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

//go:embed templates/*.html
var fs embed.FS

type Server struct {
	Auth         *auth.Store
	Schedules    *scheduler.Service
	Slots        *store.TimeSlotRepo
	Logs         *store.ExecLogRepo
	Reservations *store.ReservationRepo
	Tokens       *store.TokenStore
	Runner       *scheduler.Runner
	Logger       hclog.Logger

	BaseURL string
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	authed := func(h http.HandlerFunc) http.Handler { return s.Auth.RequireAuth(h) }

	mux.Handle("GET /{$}", authed(s.handleDashboard))
	mux.Handle("GET /schedules", authed(s.handleSchedules))
	mux.Handle("GET /schedules/new", authed(s.handleScheduleNew))
	mux.Handle("POST /schedules/create", authed(s.handleScheduleCreate))
	mux.Handle("POST /schedules/{id}/delete", authed(s.handleScheduleDelete))
	mux.Handle("POST /schedules/{id}/toggle", authed(s.handleScheduleToggle))
	mux.Handle("POST /schedules/{id}/run", authed(s.handleScheduleRun))
	mux.Handle("GET /logs", authed(s.handleLogs))
	mux.Handle("GET /logs/{id}", authed(s.handleLogDetail))
	mux.Handle("GET /settings", authed(s.handleSettings))
	mux.Handle("POST /settings/test", authed(s.handleTestRun))
	mux.Handle("POST /settings/preflight", authed(s.handlePreflight))

	mux.Handle("POST /api/execute", authed(s.handleAPIExecute))
	mux.Handle("GET /api/logs/{id}/steps", authed(s.handleAPILogSteps))

	return logging(s.Logger, mux)
}

func logging(l hclog.Logger, next http.Handler) http.Handler {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Debug("http", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		id, err := s.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := s.Schedules.Repo.CountActive(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	rate, err := s.Logs.SuccessRate(ctx, 30)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	upcoming, err := s.Reservations.ListUpcoming(ctx, 5)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	recent, err := s.Logs.List(ctx, 10)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	tok, err := s.Tokens.GetToken(ctx)

	s.render(w, "templates/dashboard.html", tmplData{
		Title:           "Dashboard",
		ActiveSchedules: active,
		SuccessRate:     int(rate * 100),
		TokenStored:     err == nil && tok != "",
		Upcoming:        upcoming,
		RecentLogs:      logViews(recent),
	})
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	scheds, err := s.Schedules.Repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	now := time.Now()
	views := make([]scheduleView, 0, len(scheds))
	for _, sc := range scheds {
		views = append(views, newScheduleView(sc, now))
	}
	s.render(w, "templates/schedules.html", tmplData{Title: "Schedules", Schedules: views})
}

func (s *Server) handleScheduleNew(w http.ResponseWriter, r *http.Request) {
	slots, err := s.Slots.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/schedule_form.html", tmplData{Title: "New Schedule", TimeSlots: slots})
}

func (s *Server) handleScheduleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	day, _ := strconv.Atoi(r.FormValue("reservation_day"))
	slotID, err := uuid.Parse(r.FormValue("time_slot_id"))
	if err != nil {
		s.renderScheduleFormError(w, r, "Select a time slot")
		return
	}
	freq := store.Frequency(r.FormValue("frequency"))
	if freq == "" {
		freq = store.FrequencyWeekly
	}

	_, err = s.Schedules.Create(r.Context(), scheduler.ScheduleInput{
		Name:            strings.TrimSpace(r.FormValue("name")),
		TimeSlotID:      slotID,
		ReservationDay:  day,
		Frequency:       freq,
		NotifyOnSuccess: r.FormValue("notify_on_success") == "on",
		NotifyOnFailure: r.FormValue("notify_on_failure") == "on",
	})
	if err != nil {
		s.renderScheduleFormError(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/schedules", http.StatusFound)
}

func (s *Server) renderScheduleFormError(w http.ResponseWriter, r *http.Request, msg string) {
	slots, _ := s.Slots.List(r.Context())
	s.render(w, "templates/schedule_form.html", tmplData{Title: "New Schedule", Flash: msg, TimeSlots: slots})
}

func (s *Server) handleScheduleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	if err := s.Schedules.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/schedules", http.StatusFound)
}

func (s *Server) handleScheduleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	cur, err := s.Schedules.Repo.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if err := s.Schedules.SetActive(r.Context(), id, !cur.IsActive); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/schedules", http.StatusFound)
}

func (s *Server) handleScheduleRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	res := s.Runner.RunSchedule(r.Context(), id)
	s.renderResult(w, "Manual Run", res, stepViews(res))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.Logs.List(r.Context(), 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/logs.html", tmplData{Title: "Execution Logs", Logs: logViews(logs)})
}

func (s *Server) handleLogDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	l, err := s.Logs.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.render(w, "templates/log_detail.html", tmplData{
		Title:  "Execution " + l.ID.String()[:8],
		Steps:  stepViews(l.Result),
		Result: &l.Result,
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	slots, err := s.Slots.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/settings.html", tmplData{Title: "Settings", TimeSlots: slots})
}

func (s *Server) handleTestRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	hour, _ := strconv.Atoi(r.FormValue("hour"))
	res := s.Runner.RunTest(r.Context(), hour)
	s.renderResult(w, "Test Run", res, stepViews(res))
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	res := s.Runner.RunPreflight(r.Context())
	s.renderResult(w, "Preflight Check", res, preflightStepViews(res))
}

func statusFor(err error) int {
	if db.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.New("base.html").Funcs(tmplFuncs).ParseFS(fs, "templates/base.html", name)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv.ListenAndServe()
}

var tmplFuncs = template.FuncMap{
	"weekday": func(d time.Weekday) string { return d.String() },
}
