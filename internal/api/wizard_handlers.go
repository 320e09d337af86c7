package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"karenta/internal/calendar"
	"karenta/internal/database"
	"karenta/internal/models"
	"karenta/internal/service"
	"karenta/internal/wizard"
)

const actorHeader = "X-Actor-Id"

func actorID(r *http.Request) (int64, error) {
	raw := r.Header.Get(actorHeader)
	if raw == "" {
		return 0, errors.New("missing X-Actor-Id header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid X-Actor-Id header")
	}
	return id, nil
}

// wizardState is the session snapshot returned by every wizard endpoint.
type wizardState struct {
	Kind        string                 `json:"kind"`
	CurrentStep int                    `json:"current_step"`
	TotalSteps  int                    `json:"total_steps"`
	StepName    string                 `json:"step_name"`
	Progress    float64                `json:"progress"`
	OnFinalStep bool                   `json:"on_final_step"`
	Error       string                 `json:"error,omitempty"`
	Form        map[string]interface{} `json:"form"`
	Quote       *models.Breakdown      `json:"quote,omitempty"`
}

func (s *Server) wizardStateFor(r *http.Request, session *models.WizardSession) wizardState {
	def, err := wizard.ForKind(session.Kind)
	if err != nil {
		return wizardState{Kind: session.Kind}
	}
	ctrl := wizard.NewController(def, session)

	state := wizardState{
		Kind:        session.Kind,
		CurrentStep: session.CurrentStep,
		TotalSteps:  session.TotalSteps,
		StepName:    ctrl.Step().Name,
		Progress:    session.Progress(),
		OnFinalStep: ctrl.OnFinalStep(),
		Error:       session.Error,
		Form:        session.Form,
	}
	if session.Kind == models.WizardBooking {
		if q, err := s.bookings.Quote(r.Context(), session); err == nil && q.TotalPrice > 0 {
			state.Quote = &q
		}
	}
	return state
}

// loadSession pulls the actor's live session for the routed wizard kind,
// writing the error response itself when there is none.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request, kind string) (*models.WizardSession, bool) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	session, err := s.sessions.GetSession(r.Context(), actor, kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "no active session; start the wizard first")
		return nil, false
	}
	return session, true
}

func (s *Server) checkWizardRate(w http.ResponseWriter, r *http.Request) bool {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	ok, err := s.sessions.CheckRateLimit(r.Context(), actor)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rate limit check failed")
		return true
	}
	if !ok {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return false
	}
	return true
}

func (s *Server) handleWizardStart(w http.ResponseWriter, r *http.Request) {
	if !s.checkWizardRate(w, r) {
		return
	}
	actor, err := actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind := r.PathValue("kind")

	var body struct {
		Form map[string]interface{} `json:"form"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	session, err := s.sessions.StartWizard(r.Context(), actor, kind)
	if err != nil {
		if errors.Is(err, wizard.ErrUnknownKind) {
			writeError(w, http.StatusNotFound, "unknown wizard kind")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start wizard")
		return
	}
	for k, v := range body.Form {
		session.Set(k, v)
	}

	// The decline sub-flow opens against a specific booking; the payment
	// facts decide up front whether the refund step will appear.
	if kind == models.WizardDecline {
		bookingID := session.GetInt64("booking_id")
		if bookingID == 0 {
			writeError(w, http.StatusBadRequest, "booking_id is required")
			return
		}
		declineCase, err := s.declines.BuildCase(r.Context(), bookingID, session.GetString("reason"))
		if err != nil {
			if errors.Is(err, service.ErrNotDeclinable) {
				writeError(w, http.StatusConflict, err.Error())
				return
			}
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		session.Set("has_valid_payment", declineCase.HasValidPayment)
		session.Set("payment_method", declineCase.PaymentMethod)
	}

	if err := s.sessions.SaveSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	writeJSON(w, http.StatusCreated, s.wizardStateFor(r, session))
}

func (s *Server) handleWizardState(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r, r.PathValue("kind"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.wizardStateFor(r, session))
}

func (s *Server) handleWizardNext(w http.ResponseWriter, r *http.Request) {
	if !s.checkWizardRate(w, r) {
		return
	}
	kind := r.PathValue("kind")
	session, ok := s.loadSession(w, r, kind)
	if !ok {
		return
	}

	var body struct {
		Form map[string]interface{} `json:"form"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	for k, v := range body.Form {
		session.Set(k, v)
	}

	def, err := wizard.ForKind(kind)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown wizard kind")
		return
	}
	ctrl := wizard.NewController(def, session)
	advanced := ctrl.Next()

	if err := s.sessions.SaveSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	status := http.StatusOK
	if !advanced {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, s.wizardStateFor(r, session))
}

func (s *Server) handleWizardBack(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r, r.PathValue("kind"))
	if !ok {
		return
	}

	def, err := wizard.ForKind(session.Kind)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown wizard kind")
		return
	}
	wizard.NewController(def, session).Back()

	if err := s.sessions.SaveSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, s.wizardStateFor(r, session))
}

func (s *Server) handleWizardCancel(w http.ResponseWriter, r *http.Request) {
	actor, err := actorID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sessions.ClearSession(r.Context(), actor, r.PathValue("kind")); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleWizardDates feeds one tapped calendar date through the two-phase
// range picker. The first accepted date becomes the pickup, the second the
// return; an end on or before the start is silently ignored.
func (s *Server) handleWizardDates(w http.ResponseWriter, r *http.Request) {
	session, ok := s.loadSession(w, r, models.WizardBooking)
	if !ok {
		return
	}

	var body struct {
		Date  string `json:"date"`
		Reset bool   `json:"reset"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	picker := pickerFromSession(session)
	if body.Reset {
		picker.Reset()
	} else {
		date, err := time.Parse("2006-01-02", body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		picker.Select(date)
	}
	pickerToSession(picker, session)

	if err := s.sessions.SaveSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	writeJSON(w, http.StatusOK, s.wizardStateFor(r, session))
}

// pickerFromSession rebuilds picker state from the session form.
func pickerFromSession(session *models.WizardSession) *calendar.RangePicker {
	picker := calendar.NewRangePicker()
	if start := session.GetTime("pickup_date"); !start.IsZero() {
		picker.Select(start)
		if end := session.GetTime("return_date"); !end.IsZero() {
			picker.Select(end)
		}
	}
	return picker
}

func pickerToSession(picker *calendar.RangePicker, session *models.WizardSession) {
	switch picker.Phase() {
	case calendar.PhaseStart:
		delete(session.Form, "pickup_date")
		delete(session.Form, "return_date")
	case calendar.PhaseEnd:
		session.Set("pickup_date", picker.Start().Format("2006-01-02"))
		delete(session.Form, "return_date")
	case calendar.PhaseDone:
		start, end, _ := picker.Range()
		session.Set("pickup_date", start.Format("2006-01-02"))
		session.Set("return_date", end.Format("2006-01-02"))
	}
}

func (s *Server) handleBookingSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.checkWizardRate(w, r) {
		return
	}
	session, ok := s.loadSession(w, r, models.WizardBooking)
	if !ok {
		return
	}

	booking, err := s.bookings.Submit(r.Context(), session)
	if err != nil {
		s.writeSubmitError(w, r, session, err)
		return
	}

	if err := s.sessions.ClearSession(r.Context(), session.ActorID, session.Kind); err != nil {
		s.logger.Warn().Err(err).Int64("actor_id", session.ActorID).Msg("failed to clear session after submit")
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleDeclineSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.checkWizardRate(w, r) {
		return
	}
	session, ok := s.loadSession(w, r, models.WizardDecline)
	if !ok {
		return
	}

	booking, err := s.declines.Decline(r.Context(), session)
	if err != nil {
		s.writeSubmitError(w, r, session, err)
		return
	}

	if err := s.sessions.ClearSession(r.Context(), session.ActorID, session.Kind); err != nil {
		s.logger.Warn().Err(err).Int64("actor_id", session.ActorID).Msg("failed to clear session after decline")
	}
	writeJSON(w, http.StatusOK, booking)
}

// writeSubmitError maps service failures onto HTTP statuses. The session is
// saved as-is so the operator's entered data survives a transient failure.
func (s *Server) writeSubmitError(w http.ResponseWriter, r *http.Request, session *models.WizardSession, err error) {
	if saveErr := s.sessions.SaveSession(r.Context(), session); saveErr != nil {
		s.logger.Warn().Err(saveErr).Msg("failed to preserve session after submit error")
	}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": verr.Message,
			"step":  verr.Step,
		})
	case errors.Is(err, service.ErrRefundProofNeeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrSubmitInProgress),
		errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, database.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
