package server

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ukydev/fuel-tracker/internal/db"
	"github.com/ukydev/fuel-tracker/internal/models"
)

// memStore is an in-memory stand-in for the Mongo collections.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]models.User
	vehicles map[string]models.Vehicle
	records  map[string]models.FuelRecord
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]models.User),
		vehicles: make(map[string]models.Vehicle),
		records:  make(map[string]models.FuelRecord),
	}
}

var (
	_ db.UserCollection       = (*memStore)(nil)
	_ db.VehicleCollection    = (*memStore)(nil)
	_ db.FuelRecordCollection = (*memStore)(nil)
)

func (s *memStore) nextID() string {
	s.seq++
	return fmt.Sprintf("%024x", s.seq)
}

func (s *memStore) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Phone == user.Phone {
			return db.ErrDuplicate
		}
	}
	user.ID = s.nextID()
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) findUser(match func(models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) FindUserByID(_ context.Context, id string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

func (s *memStore) FindUserByPhone(_ context.Context, phone string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Phone == phone })
}

func (s *memStore) FindUserByResetTokenHash(_ context.Context, hash string) (*models.User, error) {
	return s.findUser(func(u models.User) bool { return hash != "" && u.ResetTokenHash == hash })
}

func (s *memStore) SetResetToken(_ context.Context, id, hash string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.ResetTokenHash, u.ResetTokenExpiry = hash, &expiry
	s.users[id] = u
	return nil
}

func (s *memStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return db.ErrNotFound
	}
	u.PasswordHash, u.ResetTokenHash, u.ResetTokenExpiry = passwordHash, "", nil
	s.users[id] = u
	return nil
}

func (s *memStore) InsertVehicle(_ context.Context, vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicle.ID = s.nextID()
	s.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (s *memStore) findVehicles(match func(models.Vehicle) bool) []models.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Vehicle{}
	for _, v := range s.vehicles {
		if match(v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b models.Vehicle) int { return compareIDs(a.ID, b.ID) })
	return out
}

func (s *memStore) FindVehiclesByOwner(_ context.Context, userID string) ([]models.Vehicle, error) {
	return s.findVehicles(func(v models.Vehicle) bool { return v.UserID == userID }), nil
}

func (s *memStore) FindVehiclesByDriver(_ context.Context, userID string) ([]models.Vehicle, error) {
	return s.findVehicles(func(v models.Vehicle) bool { return slices.Contains(v.DriverIDs, userID) }), nil
}

func (s *memStore) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (s *memStore) UpdateVehicle(_ context.Context, id string, vehicle models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.vehicles[id]
	if !ok {
		return db.ErrNotFound
	}
	vehicle.ID, vehicle.UserID = id, old.UserID
	s.vehicles[id] = vehicle
	return nil
}

func (s *memStore) DeleteVehicle(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vehicles[id]; !ok {
		return db.ErrNotFound
	}
	delete(s.vehicles, id)
	return nil
}

func (s *memStore) InsertFuelRecord(_ context.Context, record *models.FuelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = s.nextID()
	s.records[record.ID] = *record
	return nil
}

func (s *memStore) FindFuelRecords(_ context.Context, vehicleID string) ([]models.FuelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.FuelRecord{}
	for _, r := range s.records {
		if r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.FuelRecord) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out, nil
}

func (s *memStore) FindFuelRecordByID(_ context.Context, vehicleID, id string) (*models.FuelRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok || r.VehicleID != vehicleID {
		return nil, db.ErrNotFound
	}
	return &r, nil
}

func (s *memStore) UpdateFuelRecord(_ context.Context, vehicleID, id string, record models.FuelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; !ok || r.VehicleID != vehicleID {
		return db.ErrNotFound
	}
	record.ID, record.VehicleID = id, vehicleID
	s.records[id] = record
	return nil
}

func (s *memStore) DeleteFuelRecord(_ context.Context, vehicleID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; !ok || r.VehicleID != vehicleID {
		return db.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *memStore) DeleteFuelRecordsByVehicle(_ context.Context, vehicleID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.records {
		if r.VehicleID == vehicleID {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func compareIDs(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
