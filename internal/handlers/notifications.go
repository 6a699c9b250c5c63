package handlers

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
	"github.com/rafaelfelix66/supernosso-coins/pkg/models"
)

// NotificationService posts in-app notifications to the intranet notification
// API. Delivery is best-effort; a transfer never fails because the recipient
// could not be notified.
type NotificationService struct {
	client  *resty.Client
	baseURL string
	token   string
	logger  logging.Logger
}

// NewNotificationService creates a notification service from environment
// configuration.
func NewNotificationService(logger logging.Logger) *NotificationService {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &NotificationService{
		client:  client,
		baseURL: os.Getenv("NOTIFICATION_API_URL"),
		token:   os.Getenv("NOTIFICATION_API_TOKEN"),
		logger:  logger,
	}
}

// IsConfigured checks if the notification API is configured
func (ns *NotificationService) IsConfigured() bool {
	return ns.baseURL != ""
}

type notificationPayload struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

// NotifyCoinsReceived tells the recipient someone recognized them.
func (ns *NotificationService) NotifyCoinsReceived(txn *models.Transaction, attributeName string) {
	if !ns.IsConfigured() {
		return
	}

	payload := notificationPayload{
		UserID:  txn.ToUser,
		Title:   "Você recebeu moedas!",
		Message: fmt.Sprintf("%s enviou %d moedas por %s", txn.FromUser, txn.Amount, attributeName),
		Link:    "/coins/history",
	}

	resp, err := ns.client.R().
		SetHeader("Authorization", "Bearer "+ns.token).
		SetBody(payload).
		Post(ns.baseURL + "/api/notifications")
	if err != nil {
		ns.logger.WithError(err).WithField("to_user", txn.ToUser).Warn("Failed to send coin notification")
		return
	}
	if resp.IsError() {
		ns.logger.WithFields(logging.Fields{
			"to_user": txn.ToUser,
			"status":  resp.StatusCode(),
		}).Warn("Notification API rejected coin notification")
	}
}
