package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/rpc/v2/json2"

	"github.com/HMasataka/avgap/internal/analyzer"
	"github.com/HMasataka/avgap/internal/ingest"
	"github.com/HMasataka/avgap/payload/analyze"
)

type GapAnalyzer struct {
	service *analyzer.Service
}

func (g *GapAnalyzer) Analyze(r *http.Request, args *analyze.Request, reply *analyze.Result) error {
	if args.RefuelData == "" || args.ScheduleData == "" {
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: msgEmptyBoxes}
	}

	res, err := g.service.Analyze(r.Context(), args, nil)
	if err != nil {
		if errors.Is(err, ingest.ErrMissingColumns) {
			return &json2.Error{Code: json2.E_BAD_PARAMS, Message: err.Error()}
		}

		return &json2.Error{Code: json2.E_INTERNAL, Message: err.Error()}
	}

	*reply = *res

	return nil
}

func (g *GapAnalyzer) Health(r *http.Request, args *analyze.HealthRequest, reply *analyze.HealthResponse) error {
	reply.Status = "ok"
	return nil
}
