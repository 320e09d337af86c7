package google

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"karenta/internal/models"
)

func TestBookingRowValues(t *testing.T) {
	pickup := time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC)
	ret := time.Date(2030, 6, 12, 0, 0, 0, 0, time.UTC)
	updatedAt := time.Date(2030, 6, 1, 11, 0, 0, 0, time.UTC)

	booking := &models.Booking{
		ID:            123,
		BookingNumber: "KR-0123",
		CustomerName:  "Juan Dela Cruz",
		CustomerEmail: "juan@example.com",
		VehicleName:   "Vios",
		PickupDate:    pickup,
		ReturnDate:    ret,
		Status:        "confirmed",
		PaymentStatus: "paid",
		Pricing:       models.Breakdown{TotalPrice: 250050},
		UpdatedAt:     updatedAt,
	}

	values := bookingRowValues(booking)

	expected := []interface{}{
		int64(123),
		"KR-0123",
		"Juan Dela Cruz",
		"juan@example.com",
		"Vios",
		"2030-06-10",
		"confirmed",
		"paid",
		"2500.50",
		"2030-06-12",
		"2030-06-01 11:00:00",
	}

	if len(values) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(values))
	}

	for i, v := range values {
		if v != expected[i] {
			t.Errorf("At index %d: expected %v, got %v", i, expected[i], v)
		}
	}
}

func TestCacheOperations(t *testing.T) {
	s := &SheetsService{
		rowCache: make(map[int64]int),
	}

	if _, ok := s.getCachedRow(1); ok {
		t.Errorf("Expected empty cache")
	}

	s.setCachedRow(1, 5)
	row, ok := s.getCachedRow(1)
	if !ok || row != 5 {
		t.Errorf("Expected row 5, got %d (ok=%v)", row, ok)
	}

	s.ClearCache()
	if _, ok := s.getCachedRow(1); ok {
		t.Errorf("Expected cache cleared")
	}
}

func TestGetServiceAccountEmail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	content := `{"type":"service_account","client_email":"sync@karenta-mirror.iam.gserviceaccount.com"}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s := &SheetsService{}
	email, err := s.GetServiceAccountEmail(path)
	if err != nil {
		t.Fatalf("GetServiceAccountEmail failed: %v", err)
	}
	if email != "sync@karenta-mirror.iam.gserviceaccount.com" {
		t.Errorf("unexpected email: %s", email)
	}

	if _, err := s.GetServiceAccountEmail(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("expected error for missing file")
	}
}
