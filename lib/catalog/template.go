package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownCategory = fmt.Errorf("no template for category")

// Template is one outreach message form. The body may reference
// {query} and {category} for light personalization.
type Template struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// Templates maps a category name to its outreach template. Loaded from
// configuration and passed into the dispatcher, never a process-wide
// global.
type Templates map[string]Template

func LoadTemplates(path string) (Templates, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var t Templates
	err = yaml.Unmarshal(raw, &t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("%s: no templates defined", path)
	}
	for category, tpl := range t {
		if tpl.Subject == "" || tpl.Body == "" {
			return nil, fmt.Errorf("%s: template %q needs both subject and body", path, category)
		}
	}
	return t, nil
}

// Render produces the subject and body for one recipient. A category
// without a template returns ErrUnknownCategory so the caller can skip
// that recipient and keep going.
func (t Templates) Render(category, query string) (subject, body string, err error) {
	tpl, ok := t[category]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	expand := strings.NewReplacer("{query}", query, "{category}", category)
	return expand.Replace(tpl.Subject), expand.Replace(tpl.Body), nil
}
