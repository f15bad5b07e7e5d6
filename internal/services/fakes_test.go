package services

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/telehealth-api/internal/models"
)

type recordingNotifier struct {
	mu      sync.Mutex
	booked  []primitive.ObjectID
	changed []models.AppointmentStatus
}

func (n *recordingNotifier) AppointmentBooked(apt *models.BookedAppointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.booked = append(n.booked, apt.ID)
}

func (n *recordingNotifier) AppointmentStatusChanged(apt *models.BookedAppointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, apt.Status)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
