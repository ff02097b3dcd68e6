package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avstrong/bungalows/internal/pricing"
)

type quoteInput struct {
	UnitID   string          `json:"unit_id"`
	CheckIn  string          `json:"check_in"`
	CheckOut string          `json:"check_out"`
	Guests   int             `json:"guests"`
	Extras   []pricing.Extra `json:"extras"`
}

type conflictOutput struct {
	UnitID       string   `json:"unit_id"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	BlockedDates []string `json:"blocked_dates"`
}

type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func parseDate(fe fieldErrors, field, value string) time.Time {
	if value == "" {
		fe.add(field, fmt.Sprintf("provide %s", field))

		return time.Time{}
	}

	d, err := pricing.ParseDate(value)
	if err != nil {
		fe.add(field, fmt.Sprintf("%s must be a YYYY-MM-DD date", field))
	}

	return d
}

func (in *quoteInput) toRequest() (*pricing.QuoteRequest, fieldErrors) {
	fe := make(fieldErrors)

	req := &pricing.QuoteRequest{
		UnitID:   in.UnitID,
		CheckIn:  parseDate(fe, "check_in", in.CheckIn),
		CheckOut: parseDate(fe, "check_out", in.CheckOut),
		Guests:   in.Guests,
		Extras:   in.Extras,
	}

	return req, fe
}

func formatDates(dates []time.Time) []string {
	result := make([]string, 0, len(dates))
	for _, d := range dates {
		result = append(result, pricing.FormatDate(d))
	}

	return result
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.l.LogErrorf("Could not encode response: %v", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error, action string) {
	if inputErr := pricing.IsValidationError(err); inputErr != nil {
		s.writeJSON(w, http.StatusBadRequest, inputErr.Fields())

		return
	}

	if conflictErr := pricing.IsConflictError(err); conflictErr != nil {
		s.writeJSON(w, http.StatusConflict, conflictOutput{
			UnitID:       conflictErr.UnitID,
			Start:        pricing.FormatDate(conflictErr.Start),
			End:          pricing.FormatDate(conflictErr.End),
			BlockedDates: formatDates(conflictErr.BlockedDates),
		})

		return
	}

	s.l.LogErrorf("Could not %s: %v", action, err.Error())
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) availabilityHandler(w http.ResponseWriter, r *http.Request) {
	fe := make(fieldErrors)
	query := r.URL.Query()

	start := parseDate(fe, "from", query.Get("from"))
	end := parseDate(fe, "to", query.Get("to"))

	if len(fe) > 0 {
		s.writeJSON(w, http.StatusBadRequest, fe)

		return
	}

	out, err := s.engine.CheckAvailability(r.Context(), r.PathValue("unitID"), start, end)
	if err != nil {
		s.writeError(w, err, "check availability")

		return
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	var input quoteInput

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return
	}

	req, fe := input.toRequest()
	if len(fe) > 0 {
		s.writeJSON(w, http.StatusBadRequest, fe)

		return
	}

	out, err := s.engine.CalculatePricing(r.Context(), req)
	if err != nil {
		s.writeError(w, err, "calculate pricing")

		return
	}

	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addRoutes(r *http.ServeMux) {
	r.Handle(
		"GET /api/units/{unitID}/availability/v1",
		s.applyMiddlewares(
			http.HandlerFunc(s.availabilityHandler),
			s.rateLimitMiddleware(), s.loggerMiddleware(), s.recoverMiddleware(),
		),
	)
	r.Handle(
		"POST /api/quotes/v1",
		s.applyMiddlewares(
			http.HandlerFunc(s.quoteHandler),
			s.rateLimitMiddleware(), s.loggerMiddleware(), s.recoverMiddleware(),
		),
	)
	r.Handle(
		fmt.Sprintf("GET %s", s.conf.LivenessEndpoint),
		s.applyMiddlewares(http.HandlerFunc(s.livenessHandler), s.loggerMiddleware(), s.recoverMiddleware()),
	)
}
