package handler

import (
	"context"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skybook/flight-reservation/internal/queue"
	"github.com/skybook/flight-reservation/internal/repository"
	queue_publisher "github.com/skybook/flight-reservation/internal/service"
)

// ContactHandler serves the public contact form and password-reset
// requests. Both persist a record and notify staff over the queue.
type ContactHandler struct {
	Repo *repository.ContactRepo
}

func NewContactHandler(r *repository.ContactRepo) *ContactHandler {
	return &ContactHandler{Repo: r}
}

type contactReq struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type passwordResetReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Message  string `json:"message"`
}

func validEmail(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}

// SubmitContact handles POST /contact.
func (h *ContactHandler) SubmitContact(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if req.Email == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/message required"})
	}
	if !validEmail(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m := repository.ContactMessage{Email: req.Email, Subject: req.Subject, Message: req.Message}
	if err := h.Repo.CreateMessage(ctx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save message failed"})
	}

	// Staff notification is best effort.
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = queue_publisher.PublishContactReceived(pctx, queue.ContactReceivedEvent{
			MessageID:  m.ID,
			Email:      m.Email,
			Subject:    m.Subject,
			Message:    m.Message,
			ReceivedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusCreated, echo.Map{"message": "Message received", "id": m.ID})
}

// SubmitPasswordReset handles POST /password-reset. The request is recorded
// for manual follow-up; no reset token is issued here.
func (h *ContactHandler) SubmitPasswordReset(c echo.Context) error {
	var req passwordResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)
	if req.Username == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email required"})
	}
	if !validEmail(req.Email) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p := repository.PasswordResetRequest{Username: req.Username, Email: req.Email, Message: req.Message}
	if err := h.Repo.CreateResetRequest(ctx, &p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save request failed"})
	}

	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = queue_publisher.PublishPasswordResetRequested(pctx, queue.PasswordResetRequestedEvent{
			RequestID:   p.ID,
			Username:    p.Username,
			Email:       p.Email,
			Message:     p.Message,
			RequestedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusCreated, echo.Map{"message": "Password reset request received", "id": p.ID})
}
