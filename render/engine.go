// Package render wraps the Liquid template engine for invoice HTML templates:
// named placeholders plus a repeatable block bound to items.
package render

import (
	"fmt"
	"html"
	"strconv"
	"sync"

	"github.com/osteele/liquid"
)

// TemplateService handles Liquid template rendering with a parsed-template
// cache keyed by template name.
type TemplateService struct {
	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewTemplateService creates a template service with the invoice filters
// registered.
func NewTemplateService() *TemplateService {
	ts := &TemplateService{engine: liquid.NewEngine()}
	ts.registerFilters()
	return ts
}

func (ts *TemplateService) registerFilters() {
	// Fallback value: {{ company_name | default: "—" }}
	ts.engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		strVal := fmt.Sprintf("%v", value)
		if strVal == "" || strVal == "<nil>" {
			return defaultVal
		}
		return value
	})

	// Money formatting: {{ item.total | currency }}
	ts.engine.RegisterFilter("currency", func(value interface{}) string {
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return v
			}
			f = parsed
		default:
			return fmt.Sprintf("%v", value)
		}
		return fmt.Sprintf("%.2f", f)
	})

	// HTML escape: {{ customer_name | escape }}
	ts.engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})
}

// Parse compiles a template string and returns any syntax error. Used to
// validate templates before they are saved.
func (ts *TemplateService) Parse(templateStr string) error {
	_, err := ts.engine.ParseString(templateStr)
	return err
}

// Render processes a template with the given context. When cacheKey is
// non-empty the parsed template is cached for repeated renders, so batch
// generation parses the template once.
func (ts *TemplateService) Render(cacheKey, templateStr string, ctx map[string]interface{}) (string, error) {
	if cacheKey != "" {
		if cached, ok := ts.cache.Load(cacheKey); ok {
			return cached.(*liquid.Template).RenderString(ctx)
		}
	}

	tpl, err := ts.engine.ParseString(templateStr)
	if err != nil {
		return "", err
	}
	if cacheKey != "" {
		ts.cache.Store(cacheKey, tpl)
	}
	return tpl.RenderString(ctx)
}

// ClearCacheKey drops a cached template, e.g. after the template file was
// edited.
func (ts *TemplateService) ClearCacheKey(key string) {
	ts.cache.Delete(key)
}
