package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/pbrinkmeier/hoff/internal/github"
)

// Hook event names that can translate to queue events. Everything else is
// acknowledged without touching a project queue.
var handledHookEvents = map[string]bool{
	"pull_request":  true,
	"issue_comment": true,
	"status":        true,
}

// PostHookGithub ingests one GitHub webhook delivery. It never blocks on a
// full intake queue; GitHub is asked to redeliver instead.
func (h *Handler) PostHookGithub(c *fiber.Ctx) error {
	name := utils.CopyString(c.Get("X-GitHub-Event"))
	if name == "" {
		return c.Status(http.StatusBadRequest).SendString("missing X-GitHub-Event header")
	}

	// fiber reuses request buffers; the envelope outlives this handler.
	payload := utils.CopyBytes(c.Body())

	if len(h.secret) > 0 {
		if err := github.ValidateSignature(c.Get("X-Hub-Signature-256"), payload, h.secret); err != nil {
			h.log.Warnw("webhook signature rejected", "event", name, "error", err)
			return c.Status(http.StatusBadRequest).SendString("invalid signature")
		}
	}

	if name == "ping" {
		return c.SendString("pong")
	}
	if !handledHookEvents[name] {
		return c.SendString("hook ignored")
	}

	fullName, err := github.RepositoryFullName(payload)
	if err != nil {
		h.log.Warnw("webhook payload rejected", "event", name, "error", err)
		return c.Status(http.StatusBadRequest).SendString("malformed payload")
	}

	project, ok := h.projects[fullName]
	if !ok {
		h.log.Debugw("webhook for untracked repository", "repository", fullName, "event", name)
		return c.SendString("hook ignored")
	}

	delivery := utils.CopyString(c.Get("X-GitHub-Delivery"))
	if delivery == "" {
		delivery = uuid.NewString()
	}

	envelope := github.Envelope{DeliveryID: delivery, Name: name, Payload: payload}
	if !project.Intake.TryEnqueue(envelope) {
		h.log.Warnw("intake queue full, delivery dropped",
			"project", fullName, "event", name, "delivery_id", delivery)
		return c.Status(http.StatusServiceUnavailable).SendString("queue full, please redeliver later")
	}

	h.log.Infow("webhook accepted", "project", fullName, "event", name, "delivery_id", delivery)
	return c.SendString("hook accepted")
}

// GetHookGithub tells browsers poking the endpoint that deliveries are POSTs.
func (h *Handler) GetHookGithub(c *fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).SendString("webhook deliveries must be POSTed")
}
