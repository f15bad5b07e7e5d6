package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/telehealth-api/internal/config"
	"github.com/harentsoaR/telehealth-api/internal/models"
)

type UserLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// SMSNotifier texts patients about their appointments through Textbelt.
// Sends run in their own goroutine so they never hold up a request.
type SMSNotifier struct {
	users    UserLookup
	client   *http.Client
	apiKey   string
	endpoint string
	enabled  bool
	log      *zap.Logger
}

func NewSMSNotifier(cfg config.SMSConfig, users UserLookup, log *zap.Logger) *SMSNotifier {
	return &SMSNotifier{
		users:    users,
		client:   &http.Client{Timeout: 10 * time.Second},
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		enabled:  cfg.Enabled,
		log:      log,
	}
}

func (n *SMSNotifier) AppointmentBooked(apt *models.BookedAppointment) {
	n.notify(apt, fmt.Sprintf("Appointment requested: %s at %s. We'll let you know once the doctor confirms.", apt.Date, apt.Time))
}

func (n *SMSNotifier) AppointmentStatusChanged(apt *models.BookedAppointment) {
	var body string
	switch apt.Status {
	case models.StatusConfirmed:
		body = fmt.Sprintf("Appointment confirmed: %s at %s.", apt.Date, apt.Time)
	case models.StatusCancelled:
		body = fmt.Sprintf("Appointment on %s at %s was cancelled.", apt.Date, apt.Time)
	default:
		return
	}
	n.notify(apt, body)
}

func (n *SMSNotifier) notify(apt *models.BookedAppointment, message string) {
	if !n.enabled {
		return
	}
	userID := apt.UserID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		patient, err := n.users.FindByID(ctx, userID)
		if err != nil || patient == nil {
			n.log.Warn("sms not sent: patient lookup failed", zap.String("userId", userID.Hex()), zap.Error(err))
			return
		}
		if patient.Phone == "" {
			n.log.Info("sms not sent: patient has no phone number", zap.String("userId", userID.Hex()))
			return
		}
		if err := n.send(ctx, patient.Phone, message); err != nil {
			n.log.Warn("sms send failed", zap.String("userId", userID.Hex()), zap.Error(err))
			return
		}
		n.log.Info("sms sent", zap.String("userId", userID.Hex()))
	}()
}

type textbeltResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (n *SMSNotifier) send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     n.apiKey,
	})
	if err != nil {
		return fmt.Errorf("encoding sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling textbelt: %w", err)
	}
	defer resp.Body.Close()

	var result textbeltResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding textbelt response (status %d): %w", resp.StatusCode, err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	return nil
}
