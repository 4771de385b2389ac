package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/set-night/timetravel/internal/booking"
	"github.com/set-night/timetravel/internal/config"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/set-night/timetravel/internal/service"
)

type validationResponse struct {
	Errors map[string]string `json:"errors"`
}

func (s *Server) handleDestinations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, booking.Destinations())
}

// handleQuote prices a possibly incomplete form. Missing dates yield a zero
// quote, an unknown destination is a 400.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	travelers := 1
	if v := q.Get("travelers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "travelers must be a number")
			return
		}
		travelers = n
	}

	quote, err := s.deps.Bookings.Quote(domain.DestinationKey(q.Get("destination")), q.Get("startDate"), q.Get("endDate"), travelers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var form booking.Form
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, config.MaxRequestBody)).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking payload")
		return
	}
	if form.Travelers == 0 {
		form.Travelers = 1
	}

	b, err := s.deps.Bookings.Submit(r.Context(), form)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: verr.Fields})
		case errors.Is(err, domain.ErrSubmission):
			writeError(w, http.StatusBadGateway, config.SubmissionErrorText)
		default:
			writeError(w, http.StatusInternalServerError, config.SubmissionErrorText)
		}
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Bookings.Get(r.Context(), r.PathValue("reference"))
	switch {
	case errors.Is(err, domain.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking not found")
	case err != nil:
		slog.Error("get booking", "error", err)
		writeError(w, http.StatusInternalServerError, "booking lookup failed")
	default:
		writeJSON(w, http.StatusOK, b)
	}
}
