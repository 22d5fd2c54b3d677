package dashboard

import (
	"context"
	"errors"
	"io"
)

const defaultTemplate = "dashboard.html"

// PageService is the read path the controller needs.
type PageService interface {
	Render(ctx context.Context, req PageRequest) (Page, error)
}

// ControllerOptions wires the controller collaborators.
type ControllerOptions struct {
	Service  PageService
	Renderer Renderer
	Template string
	Title    string
	BasePath string
}

// Controller turns render passes into HTML or JSON payloads.
type Controller struct {
	service  PageService
	renderer Renderer
	template string
	title    string
	basePath string
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	tpl := opts.Template
	if tpl == "" {
		tpl = defaultTemplate
	}
	title := opts.Title
	if title == "" {
		title = "Browse GoodData Content"
	}
	return &Controller{
		service:  opts.Service,
		renderer: opts.Renderer,
		template: tpl,
		title:    title,
		basePath: opts.BasePath,
	}
}

// BasePath is the mount point used to build form actions.
func (c *Controller) BasePath() string {
	return c.basePath
}

// LayoutPayload resolves the page for JSON transports.
func (c *Controller) LayoutPayload(ctx context.Context, req PageRequest, messages ...Message) (Page, error) {
	if c.service == nil {
		return Page{}, errors.New("dashboard: controller requires a page service")
	}
	page, err := c.service.Render(ctx, req)
	if err != nil {
		return Page{}, err
	}
	page.Messages = append(page.Messages, messages...)
	return page, nil
}

// RenderTemplate renders the page with the configured template into out.
func (c *Controller) RenderTemplate(ctx context.Context, req PageRequest, out io.Writer, messages ...Message) error {
	if c.renderer == nil {
		return errors.New("dashboard: controller requires a renderer")
	}
	page, err := c.LayoutPayload(ctx, req, messages...)
	if err != nil {
		return err
	}
	_, err = c.renderer.Render(c.template, c.templateData(req, page), out)
	return err
}

func (c *Controller) templateData(req PageRequest, page Page) map[string]any {
	toggles := map[string]bool{}
	for k, v := range req.Toggles {
		toggles[k] = v
	}
	selections := map[string]string{}
	for k, v := range req.Selections {
		selections[k] = v
	}
	return map[string]any{
		"title":      c.title,
		"base_path":  c.basePath,
		"page":       page,
		"panels":     page.Panels,
		"workspaces": page.Workspaces,
		"messages":   page.Messages,
		"error":      page.Error,
		"toggles":    toggles,
		"selections": selections,
	}
}
