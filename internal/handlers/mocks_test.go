package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fuel-tracker/internal/middleware"
	"github.com/ukydev/fuel-tracker/internal/models"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = "65a1f0c2e4b0a1b2c3d4e5f6"
	}
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByResetTokenHash(ctx context.Context, hash string) (*models.User, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) SetResetToken(ctx context.Context, id, hash string, expiry time.Time) error {
	args := m.Called(ctx, id, hash, expiry)
	return args.Error(0)
}

func (m *MockUserCollection) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

// MockVehicleCollection is a mock implementation of VehicleCollection
type MockVehicleCollection struct {
	mock.Mock
}

func (m *MockVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	if args.Error(0) == nil {
		vehicle.ID = "v-new"
	}
	return args.Error(0)
}

func (m *MockVehicleCollection) FindVehiclesByOwner(ctx context.Context, userID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID)
	vehicles, _ := args.Get(0).([]models.Vehicle)
	return vehicles, args.Error(1)
}

func (m *MockVehicleCollection) FindVehiclesByDriver(ctx context.Context, userID string) ([]models.Vehicle, error) {
	args := m.Called(ctx, userID)
	vehicles, _ := args.Get(0).([]models.Vehicle)
	return vehicles, args.Error(1)
}

func (m *MockVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	args := m.Called(ctx, id, vehicle)
	return args.Error(0)
}

func (m *MockVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFuelRecordCollection is a mock implementation of FuelRecordCollection
type MockFuelRecordCollection struct {
	mock.Mock
}

func (m *MockFuelRecordCollection) InsertFuelRecord(ctx context.Context, record *models.FuelRecord) error {
	args := m.Called(ctx, record)
	if args.Error(0) == nil {
		record.ID = "r-new"
	}
	return args.Error(0)
}

func (m *MockFuelRecordCollection) FindFuelRecords(ctx context.Context, vehicleID string) ([]models.FuelRecord, error) {
	args := m.Called(ctx, vehicleID)
	records, _ := args.Get(0).([]models.FuelRecord)
	return records, args.Error(1)
}

func (m *MockFuelRecordCollection) FindFuelRecordByID(ctx context.Context, vehicleID, id string) (*models.FuelRecord, error) {
	args := m.Called(ctx, vehicleID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FuelRecord), args.Error(1)
}

func (m *MockFuelRecordCollection) UpdateFuelRecord(ctx context.Context, vehicleID, id string, record models.FuelRecord) error {
	args := m.Called(ctx, vehicleID, id, record)
	return args.Error(0)
}

func (m *MockFuelRecordCollection) DeleteFuelRecord(ctx context.Context, vehicleID, id string) error {
	args := m.Called(ctx, vehicleID, id)
	return args.Error(0)
}

func (m *MockFuelRecordCollection) DeleteFuelRecordsByVehicle(ctx context.Context, vehicleID string) (int64, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.FuelRecordEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() {}

// newRequest builds a request with an optional JSON body, route variables
// and an authenticated user.
func newRequest(t *testing.T, method, path string, body any, vars map[string]string, userID string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	if userID != "" {
		req = req.WithContext(middleware.WithUser(req.Context(), &models.Claims{UserID: userID}))
	}
	return req
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func messageOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[models.MessageResponse](t, w).Message
}
