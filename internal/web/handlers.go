package web

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/HMasataka/avgap/internal/ingest"
	"github.com/HMasataka/avgap/payload/analyze"
)

const (
	msgEmptyBoxes  = "Please paste data into both boxes first."
	msgParseFailed = "Could not parse data. Ensure you copied straight from Excel (Tab separated)."
)

type formValues struct {
	RefuelData     string
	ScheduleData   string
	SlackMinutes   string
	JumpThreshold  string
	IgnoreAV7s     string
	IgnoreFlights  string
	IgnorePrefixes string
}

type indexView struct {
	Form     formValues
	Result   *analyze.Result
	ErrorMsg string
	Recent   []*analyze.Result
}

func (s *Server) defaultForm() formValues {
	return formValues{
		SlackMinutes:  strconv.Itoa(s.options.DefaultSlackMinutes),
		JumpThreshold: strconv.FormatInt(s.options.DefaultJumpThreshold, 10),
	}
}

func (s *Server) recent() []*analyze.Result {
	n := s.options.HistoryShown
	if n < 1 {
		n = 10
	}

	return s.service.Store().Recent(n)
}

func (s *Server) render(w http.ResponseWriter, view indexView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := s.tpl.ExecuteTemplate(w, "index.html", view); err != nil {
		slog.Error("failed to render template", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.render(w, indexView{Form: s.defaultForm(), Recent: s.recent()})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxPasteBytes)

	if err := r.ParseForm(); err != nil {
		s.render(w, indexView{Form: s.defaultForm(), ErrorMsg: msgParseFailed, Recent: s.recent()})
		return
	}

	form := formValues{
		RefuelData:     r.PostFormValue("refuel_data"),
		ScheduleData:   r.PostFormValue("schedule_data"),
		SlackMinutes:   r.PostFormValue("slack_minutes"),
		JumpThreshold:  r.PostFormValue("jump_threshold"),
		IgnoreAV7s:     r.PostFormValue("ignore_av7s"),
		IgnoreFlights:  r.PostFormValue("ignore_flights"),
		IgnorePrefixes: r.PostFormValue("ignore_prefixes"),
	}

	if strings.TrimSpace(form.RefuelData) == "" || strings.TrimSpace(form.ScheduleData) == "" {
		s.render(w, indexView{Form: form, ErrorMsg: msgEmptyBoxes, Recent: s.recent()})
		return
	}

	res, err := s.service.Analyze(r.Context(), requestFromForm(form), nil)
	if err != nil {
		s.render(w, indexView{Form: form, ErrorMsg: analysisErrorMessage(err), Recent: s.recent()})
		return
	}

	s.render(w, indexView{Form: form, Result: res, Recent: s.recent()})
}

func requestFromForm(form formValues) *analyze.Request {
	slack, _ := strconv.Atoi(strings.TrimSpace(form.SlackMinutes))
	threshold, _ := strconv.ParseInt(strings.TrimSpace(form.JumpThreshold), 10, 64)

	return &analyze.Request{
		RefuelData:     form.RefuelData,
		ScheduleData:   form.ScheduleData,
		SlackMinutes:   slack,
		JumpThreshold:  threshold,
		IgnoreAV7s:     form.IgnoreAV7s,
		IgnoreFlights:  form.IgnoreFlights,
		IgnorePrefixes: form.IgnorePrefixes,
	}
}

func analysisErrorMessage(err error) string {
	if errors.Is(err, ingest.ErrMissingColumns) {
		return err.Error()
	}

	return msgParseFailed
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/runs/")

	if id, ok := strings.CutSuffix(path, "/report.csv"); ok {
		s.serveRunReport(w, r, id)
		return
	}

	if path == "" || strings.Contains(path, "/") {
		http.NotFound(w, r)
		return
	}

	res, found := s.service.Store().Get(path)
	if !found {
		http.NotFound(w, r)
		return
	}

	s.render(w, indexView{Form: s.defaultForm(), Result: res, Recent: s.recent()})
}

func (s *Server) serveRunReport(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	res, found := s.service.Store().Get(id)
	if !found {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="missing_av7_report.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Missing_AV7", "Window_Logic", "Window_Start", "Window_End", "POTENTIAL_FLIGHTS"})

	for _, p := range res.Predictions {
		cw.Write([]string{
			strconv.FormatInt(p.MissingAV7, 10),
			p.WindowLogic,
			p.WindowStart,
			p.WindowEnd,
			p.PotentialFlights,
		})
	}

	cw.Flush()
}
