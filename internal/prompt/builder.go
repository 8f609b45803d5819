package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

type TemplateName string

const (
	TemplateTranslate TemplateName = "translate.yaml"
)

// templateFile is the on-disk shape of a prompt: a system instruction and a user turn.
type templateFile struct {
	Name   string `yaml:"name"`
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiledTemplate struct {
	system *template.Template
	user   *template.Template
}

// Rendered is a prompt pair ready to send to a chat model.
type Rendered struct {
	System string
	User   string
}

type PromptBuilder struct {
	mu        sync.RWMutex
	templates map[TemplateName]*compiledTemplate
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		templates: make(map[TemplateName]*compiledTemplate),
	}
}

func (pb *PromptBuilder) Render(name TemplateName, data any) (Rendered, error) {
	tmpl, err := pb.getTemplate(name)
	if err != nil {
		return Rendered{}, err
	}

	var system, user bytes.Buffer
	if err := tmpl.system.Execute(&system, data); err != nil {
		return Rendered{}, fmt.Errorf("render prompt %s system: %w", name, err)
	}
	if err := tmpl.user.Execute(&user, data); err != nil {
		return Rendered{}, fmt.Errorf("render prompt %s user: %w", name, err)
	}

	return Rendered{System: system.String(), User: user.String()}, nil
}

func (pb *PromptBuilder) getTemplate(name TemplateName) (*compiledTemplate, error) {
	pb.mu.RLock()
	if tmpl, ok := pb.templates[name]; ok {
		pb.mu.RUnlock()
		return tmpl, nil
	}
	pb.mu.RUnlock()

	filename := filepath.ToSlash(filepath.Join("templates", string(name)))
	content, err := templateFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("load prompt template %s: %w", name, err)
	}

	var file templateFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("decode prompt template %s: %w", name, err)
	}

	system, err := template.New(string(name) + ":system").Option("missingkey=error").Parse(file.System)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s system: %w", name, err)
	}
	user, err := template.New(string(name) + ":user").Option("missingkey=error").Parse(file.User)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s user: %w", name, err)
	}

	compiled := &compiledTemplate{system: system, user: user}

	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.templates[name] = compiled

	return compiled, nil
}
