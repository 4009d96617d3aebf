// Package template renders catalog message templates into ready-to-send
// subject and body text.
package template

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// RenderData is the variable set available inside message templates.
type RenderData struct {
	UserID     string
	Recipient  string
	WorkflowID string
	StepNumber int
}

// RenderedMessage is a fully expanded template ready to queue.
type RenderedMessage struct {
	Subject  string
	HTMLBody string
	TextBody string
}

type compiledTemplate struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// Registry holds parsed message templates keyed by template ID. Parsing
// happens once at construction; a malformed template is a startup error.
type Registry struct {
	templates map[string]*compiledTemplate
}

func NewRegistry(tmpls []*domain.MessageTemplate) (*Registry, error) {
	reg := &Registry{templates: make(map[string]*compiledTemplate, len(tmpls))}
	for _, t := range tmpls {
		if _, exists := reg.templates[t.ID]; exists {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		subject, err := texttemplate.New(t.ID + ":subject").Parse(t.Subject)
		if err != nil {
			return nil, fmt.Errorf("template %q subject: %w", t.ID, err)
		}
		html, err := htmltemplate.New(t.ID + ":html").Parse(t.HTMLBody)
		if err != nil {
			return nil, fmt.Errorf("template %q html: %w", t.ID, err)
		}
		text, err := texttemplate.New(t.ID + ":text").Parse(t.TextBody)
		if err != nil {
			return nil, fmt.Errorf("template %q text: %w", t.ID, err)
		}
		reg.templates[t.ID] = &compiledTemplate{subject: subject, html: html, text: text}
	}
	return reg, nil
}

func (r *Registry) Has(templateID string) bool {
	_, ok := r.templates[templateID]
	return ok
}

// Render expands the template with the given data.
func (r *Registry) Render(templateID string, data RenderData) (*RenderedMessage, error) {
	tmpl, ok := r.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", templateID)
	}

	var subject, html, text strings.Builder
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("render %s subject: %w", templateID, err)
	}
	if err := tmpl.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("render %s html: %w", templateID, err)
	}
	if err := tmpl.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("render %s text: %w", templateID, err)
	}

	return &RenderedMessage{
		Subject:  strings.TrimSpace(subject.String()),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

// ValidateCatalog checks that every template a workflow step can select
// exists in the registry. Steps with variants send the variant template, so
// only the variants are required for them.
func (r *Registry) ValidateCatalog(defs []*domain.WorkflowDefinition) error {
	for _, def := range defs {
		for i := range def.Steps {
			step := &def.Steps[i]
			if len(step.Variants) > 0 {
				for _, v := range step.Variants {
					if !r.Has(v) {
						return fmt.Errorf("workflow %q step %d: variant template %q not registered", def.ID, step.StepNumber, v)
					}
				}
				continue
			}
			if !r.Has(step.TemplateID) {
				return fmt.Errorf("workflow %q step %d: template %q not registered", def.ID, step.StepNumber, step.TemplateID)
			}
		}
	}
	return nil
}
