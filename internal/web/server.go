package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/HMasataka/avgap/internal/analyzer"
	"github.com/HMasataka/avgap/pkg/gap"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

type Options struct {
	MaxPasteBytes        int64
	DefaultSlackMinutes  int
	DefaultJumpThreshold int64
	HistoryShown         int
}

func DefaultOptions() Options {
	return Options{
		MaxPasteBytes:        10 << 20,
		DefaultSlackMinutes:  gap.DefaultSlackMinutes,
		DefaultJumpThreshold: gap.DefaultSeriesJumpThreshold,
		HistoryShown:         10,
	}
}

type Server struct {
	service *analyzer.Service
	options Options
	tpl     *template.Template
	mux     *http.ServeMux
}

func NewServer(service *analyzer.Service, options Options) (*Server, error) {
	if options.MaxPasteBytes < 1 {
		options.MaxPasteBytes = DefaultOptions().MaxPasteBytes
	}

	tpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		service: service,
		options: options,
		tpl:     tpl,
		mux:     http.NewServeMux(),
	}

	if err := s.routes(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Server) routes() error {
	subStaticFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("prepare static filesystem: %w", err)
	}

	rpcServer := rpc.NewServer()
	rpcServer.RegisterCodec(json2.NewCodec(), "application/json")
	if err := rpcServer.RegisterService(&GapAnalyzer{service: s.service}, ""); err != nil {
		return fmt.Errorf("register rpc service: %w", err)
	}

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/runs/", s.handleRuns)
	s.mux.HandleFunc("/api/analyze", s.handleAPIAnalyze)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.Handle("/rpc", rpcServer)

	s.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(subStaticFS))))

	return nil
}

func (s *Server) Handler() http.Handler {
	return RequestLogger(s.mux)
}
