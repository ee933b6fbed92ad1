package handlers_fiber

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pbrinkmeier/hoff/internal/mapper"
)

// ListProjects reports the tracked state of every configured project.
func (h *Handler) ListProjects(c *fiber.Ctx) error {
	views := make([]mapper.ProjectView, 0, len(h.order))
	for _, name := range h.order {
		views = append(views, projectView(h.projects[name]))
	}

	return c.JSON(views)
}

// GetProject reports the tracked state of a single project.
func (h *Handler) GetProject(c *fiber.Ctx) error {
	name := c.Params("owner") + "/" + c.Params("repository")
	p, ok := h.projects[name]
	if !ok {
		return writeError(c, http.StatusNotFound, "unknown project")
	}

	return c.JSON(projectView(p))
}

func projectView(p *Project) mapper.ProjectView {
	view := mapper.ToProjectView(p.Owner, p.Repository, p.Branch, p.Register.Snapshot())
	view.QueueLength = p.Intake.Len()
	return view
}
