// Package memory provides in-process stores with the same lookup and
// uniqueness semantics as the MongoDB repositories. Lookups return nil, nil
// when nothing matches and returned values are copies.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/telehealth-api/internal/models"
	"github.com/harentsoaR/telehealth-api/internal/repository"
)

type AvailabilityStore struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]*models.AvailabilityRecord
	doctors map[primitive.ObjectID]models.DoctorSummary
}

func NewAvailabilityStore() *AvailabilityStore {
	return &AvailabilityStore{
		records: map[primitive.ObjectID]*models.AvailabilityRecord{},
		doctors: map[primitive.ObjectID]models.DoctorSummary{},
	}
}

// SetDoctor registers the user joined by ListActiveWithDoctors.
func (s *AvailabilityStore) SetDoctor(doc models.DoctorSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[doc.ID] = doc
}

func (s *AvailabilityStore) FindByDoctor(_ context.Context, doctorID primitive.ObjectID) (*models.AvailabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[doctorID]
	if !ok {
		return nil, nil
	}
	return snapshot(rec), nil
}

func (s *AvailabilityStore) Upsert(_ context.Context, doctorID primitive.ObjectID, duration int, fee float64, dates []models.SpecificDate, now time.Time) (*models.AvailabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[doctorID]
	if !ok {
		rec = &models.AvailabilityRecord{ID: primitive.NewObjectID(), DoctorID: doctorID, IsActive: true, CreatedAt: now}
		s.records[doctorID] = rec
	}
	rec.SessionDuration = duration
	rec.ConsultationFee = fee
	rec.SpecificDates = cloneDates(dates)
	rec.LastUpdated = now
	return snapshot(rec), nil
}

func (s *AvailabilityStore) Update(_ context.Context, doctorID primitive.ObjectID, patch models.AvailabilityPatch, now time.Time) (*models.AvailabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[doctorID]
	if !ok {
		return nil, nil
	}
	if patch.SessionDuration != nil {
		rec.SessionDuration = *patch.SessionDuration
	}
	if patch.ConsultationFee != nil {
		rec.ConsultationFee = *patch.ConsultationFee
	}
	if patch.SpecificDates != nil {
		rec.SpecificDates = cloneDates(*patch.SpecificDates)
	}
	if patch.IsActive != nil {
		rec.IsActive = *patch.IsActive
	}
	rec.LastUpdated = now
	return snapshot(rec), nil
}

func (s *AvailabilityStore) Delete(_ context.Context, doctorID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[doctorID]; !ok {
		return false, nil
	}
	delete(s.records, doctorID)
	return true, nil
}

// ListActiveWithDoctors skips records whose doctor was never registered with
// SetDoctor, as the $lookup/$unwind pipeline drops them.
func (s *AvailabilityStore) ListActiveWithDoctors(_ context.Context) ([]models.DoctorAvailability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DoctorAvailability, 0)
	for id, rec := range s.records {
		doc, ok := s.doctors[id]
		if !rec.IsActive || !ok {
			continue
		}
		out = append(out, models.DoctorAvailability{AvailabilityRecord: *snapshot(rec), Doctor: doc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Doctor.FullName < out[j].Doctor.FullName })
	return out, nil
}

// snapshot copies rec so callers never share its date slices with the store.
func snapshot(rec *models.AvailabilityRecord) *models.AvailabilityRecord {
	cp := *rec
	cp.SpecificDates = cloneDates(rec.SpecificDates)
	return &cp
}

func cloneDates(dates []models.SpecificDate) []models.SpecificDate {
	if dates == nil {
		return nil
	}
	out := make([]models.SpecificDate, len(dates))
	for i, d := range dates {
		out[i] = models.SpecificDate{Date: d.Date, TimeSlots: append([]models.TimeWindow(nil), d.TimeSlots...)}
	}
	return out
}

// AppointmentStore enforces the active-slot uniqueness of the partial index.
// SkipPrecheck makes FindActiveBySlot miss, as a concurrent booking would.
type AppointmentStore struct {
	SkipPrecheck bool

	mu    sync.Mutex
	items map[primitive.ObjectID]*models.BookedAppointment
}

func NewAppointmentStore() *AppointmentStore {
	return &AppointmentStore{items: map[primitive.ObjectID]*models.BookedAppointment{}}
}

func (s *AppointmentStore) FindActiveBySlot(_ context.Context, doctorID primitive.ObjectID, date, clock string) (*models.BookedAppointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SkipPrecheck {
		return nil, nil
	}
	for _, a := range s.items {
		if a.DoctorID == doctorID && a.Date == date && a.Time == clock && a.Status.HoldsSlot() {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *AppointmentStore) Insert(_ context.Context, apt *models.BookedAppointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.items {
		if a.HoldsSlot && a.DoctorID == apt.DoctorID && a.Date == apt.Date && a.Time == apt.Time {
			return repository.ErrDuplicateKey
		}
	}
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	apt.HoldsSlot = apt.Status.HoldsSlot()
	cp := *apt
	s.items[apt.ID] = &cp
	return nil
}

func (s *AppointmentStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.BookedAppointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// UpdateStatus applies change only while the appointment is still in from.
func (s *AppointmentStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from models.AppointmentStatus, change models.StatusChange) (*models.BookedAppointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok || a.Status != from {
		return nil, nil
	}
	a.Status = change.Status
	a.HoldsSlot = change.Status.HoldsSlot()
	a.UpdatedAt = change.UpdatedAt
	if change.CancelledAt != nil {
		a.CancelledAt = change.CancelledAt
		a.CancelReason = change.CancelReason
	}
	cp := *a
	return &cp, nil
}

func (s *AppointmentStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.BookedAppointment, error) {
	out := s.filter(func(a *models.BookedAppointment) bool { return a.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return slotKey(out[i]) > slotKey(out[j]) })
	return out, nil
}

func (s *AppointmentStore) ListByDoctor(_ context.Context, doctorID primitive.ObjectID, date string) ([]models.BookedAppointment, error) {
	out := s.filter(func(a *models.BookedAppointment) bool {
		return a.DoctorID == doctorID && (date == "" || a.Date == date)
	})
	sort.Slice(out, func(i, j int) bool { return slotKey(out[i]) < slotKey(out[j]) })
	return out, nil
}

func (s *AppointmentStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *AppointmentStore) filter(keep func(*models.BookedAppointment) bool) []models.BookedAppointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.BookedAppointment, 0)
	for _, a := range s.items {
		if keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

func slotKey(a models.BookedAppointment) string {
	return a.Date + " " + a.Time
}

// UserStore treats email as unique, like the users collection index.
type UserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: map[primitive.ObjectID]*models.User{}}
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateKey
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, patch models.ProfilePatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if patch.FullName != nil {
		u.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Specialization != nil {
		u.Specialization = *patch.Specialization
	}
	cp := *u
	return &cp, nil
}
