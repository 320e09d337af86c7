package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"karenta/internal/database"
	"karenta/internal/geo"
	"karenta/internal/models"
	"karenta/internal/storage"
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleGetBookingByNumber(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.URL.Query().Get("number"))
	if number == "" {
		writeError(w, http.StatusBadRequest, "number is required")
		return
	}

	booking, err := s.bookings.GetBookingByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "booking not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load booking")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	s.handleStatusTransition(w, r, s.bookings.ConfirmBooking)
}

func (s *Server) handleCompleteBooking(w http.ResponseWriter, r *http.Request) {
	s.handleStatusTransition(w, r, s.bookings.CompleteBooking)
}

func (s *Server) handleStatusTransition(
	w http.ResponseWriter, r *http.Request,
	transition func(ctx context.Context, bookingID, version int64) error,
) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body struct {
		Version int64 `json:"version"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Version <= 0 {
		writeError(w, http.StatusBadRequest, "version is required")
		return
	}

	if err := transition(r.Context(), id, body.Version); err != nil {
		switch {
		case errors.Is(err, database.ErrVersionConflict):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "booking not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vehicleID, err := strconv.ParseInt(q.Get("vehicle_id"), 10, 64)
	if err != nil || vehicleID <= 0 {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}
	pickup, err := time.Parse("2006-01-02", q.Get("pickup"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pickup date; expected YYYY-MM-DD")
		return
	}
	ret, err := time.Parse("2006-01-02", q.Get("return"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid return date; expected YYYY-MM-DD")
		return
	}

	available, err := s.bookings.CheckAvailability(r.Context(), vehicleID, pickup, ret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check availability")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"vehicle_id": vehicleID,
		"pickup":     pickup.Format("2006-01-02"),
		"return":     ret.Format("2006-01-02"),
		"available":  available,
	})
}

func (s *Server) handleVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := s.vehicles.GetActiveVehicles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load vehicles")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vehicles": vehicles})
}

func (s *Server) handleVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	vehicle, err := s.vehicles.GetVehicleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "vehicle not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load vehicle")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// handlePickupPoints answers nearest-point queries against the static
// catalog. Without lat/lng the full catalog comes back unsorted.
func (s *Server) handlePickupPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var origin *geo.Coordinate
	latRaw, lngRaw := q.Get("lat"), q.Get("lng")
	if latRaw != "" || lngRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lng, lngErr := strconv.ParseFloat(lngRaw, 64)
		if latErr != nil || lngErr != nil {
			writeError(w, http.StatusBadRequest, "lat and lng must both be valid numbers")
			return
		}
		origin = &geo.Coordinate{Lat: lat, Lng: lng}
	}

	var radius float64
	if raw := q.Get("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radius = parsed
	}

	points, err := s.vehicles.NearbyPickupPoints(r.Context(), origin, radius, q.Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load pickup points")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pickup_points": points})
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
		customer, err := s.customers.GetCustomerByEmail(r.Context(), email)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				writeError(w, http.StatusNotFound, "customer not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load customer")
			return
		}
		writeJSON(w, http.StatusOK, customer)
		return
	}

	customers, err := s.customers.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load customers")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (s *Server) handleSaveCustomer(w http.ResponseWriter, r *http.Request) {
	var customer models.Customer
	if err := decodeBody(r, &customer); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.customers.SaveCustomer(r.Context(), &customer); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, database.ErrNotFound):
			writeError(w, http.StatusNotFound, "customer not found")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleCustomerBookings(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := s.customers.GetCustomerBookings(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *Server) handleProofUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("proof")
	if err != nil {
		writeError(w, http.StatusBadRequest, "proof file is required")
		return
	}
	defer file.Close()

	url, err := s.proofs.SaveProof(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrProofTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, storage.ErrProofBadType):
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to store proof")
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (s *Server) handleScheduleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := time.Parse("2006-01-02", q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date; expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date; expected YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	path, err := s.exporter.BookingSchedule(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}
