// Package notify implements the fire-and-forget notification collaborator.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/fleetops/fleet-management/internal/models"
)

// SMTPConfig holds the mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailNotifier sends trip assignment mails over SMTP.
type EmailNotifier struct {
	cfg SMTPConfig
}

// NewEmailNotifier creates an SMTP-backed notifier.
func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg}
}

// SendTripAssignment mails the trip details to the assigned driver. Callers
// treat failures as log-and-continue; a lost mail never fails a booking.
func (n *EmailNotifier) SendTripAssignment(ctx context.Context, driverEmail string, trip *models.Trip, vehicle *models.Vehicle) error {
	subject := "New Trip Assignment - Fleet Management"

	var body strings.Builder
	body.WriteString("Hello Driver,\r\n\r\n")
	body.WriteString("You have been assigned a new trip.\r\n\r\n")
	fmt.Fprintf(&body, "Passenger: %s (%s)\r\n", trip.PassengerName, trip.PassengerContact)
	fmt.Fprintf(&body, "Pickup: %s\r\n", trip.PickupLocation)
	fmt.Fprintf(&body, "Destination: %s\r\n", trip.Destination)
	fmt.Fprintf(&body, "Pickup time: %s\r\n", trip.ScheduledPickupTime.Format(time.RFC1123))
	if trip.Purpose != "" {
		fmt.Fprintf(&body, "Purpose: %s\r\n", trip.Purpose)
	}
	if vehicle != nil {
		fmt.Fprintf(&body, "Vehicle: %s %s (%s)\r\n", vehicle.Make, vehicle.Model, vehicle.Registration)
	}
	body.WriteString("\r\nPlease arrive at the pickup location 10 minutes early.\r\n")

	return n.send(ctx, driverEmail, subject, body.String())
}

func (n *EmailNotifier) send(ctx context.Context, to, subject, body string) error {
	if n.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		n.cfg.From, to, subject, body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
