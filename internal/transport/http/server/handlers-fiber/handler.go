// Package handlers_fiber wires HTTP delivery components.
package handlers_fiber

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pbrinkmeier/hoff/internal/entities"
	"github.com/pbrinkmeier/hoff/internal/github"
	"github.com/pbrinkmeier/hoff/internal/logic"
	"github.com/pbrinkmeier/hoff/internal/queue"
)

// Project is the transport-side handle of one gated repository: where
// inbound webhook deliveries are dropped and where the published state
// is read from.
type Project struct {
	Owner      string
	Repository string
	Branch     entities.Branch
	Intake     *queue.Queue[github.Envelope]
	Register   *logic.Register
}

// FullName returns the "owner/repository" form used in webhook payloads.
func (p *Project) FullName() string {
	return p.Owner + "/" + p.Repository
}

// Handler serves the webhook intake and the read-only status API.
type Handler struct {
	log      *zap.SugaredLogger
	secret   []byte
	projects map[string]*Project
	order    []string
}

// NewHandler constructs an HTTP handler over the given projects. An empty
// secret disables webhook signature checks.
func NewHandler(log *zap.SugaredLogger, secret string, projects []*Project) *Handler {
	byName := make(map[string]*Project, len(projects))
	order := make([]string, 0, len(projects))
	for _, p := range projects {
		byName[p.FullName()] = p
		order = append(order, p.FullName())
	}

	return &Handler{
		log:      log.Named("http"),
		secret:   []byte(secret),
		projects: byName,
		order:    order,
	}
}

// Register mounts all routes on the fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Post("/hook/github", h.PostHookGithub)
	app.Get("/hook/github", h.GetHookGithub)
	app.Get("/api/projects", h.ListProjects)
	app.Get("/api/projects/:owner/:repository", h.GetProject)
}
