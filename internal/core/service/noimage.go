package service

import (
	"fmt"
	"regexp"

	"imgforge/internal/core/domain"
)

type noImagePattern struct {
	name string
	re   *regexp.Regexp
}

// NoImageResolver picks the fallback asset served when a requested
// source is missing: a default, a named path, or the first configured
// pattern matching the requested path.
type NoImageResolver struct {
	defaultPath string
	paths       map[string]string
	patterns    []noImagePattern
}

// NewNoImageResolver compiles the configured fallback rules. Pattern
// order follows the configuration; the first match wins.
func NewNoImageResolver(cfg domain.NoImageConfig) (*NoImageResolver, error) {
	r := &NoImageResolver{
		defaultPath: cfg.Default,
		paths:       cfg.Paths,
	}

	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("no-image pattern %q: %w", p.Name, err)
		}
		r.patterns = append(r.patterns, noImagePattern{name: p.Name, re: re})
	}

	return r, nil
}

// GetNoImage returns the named fallback, or the default for an empty
// name. Asking for an unconfigured fallback is an error.
func (r *NoImageResolver) GetNoImage(name string) (domain.PathInfo, error) {
	if name == "" {
		if r.defaultPath == "" {
			return domain.PathInfo{}, domain.NewRequestError(domain.ErrSourceNotFound,
				"no default no-image path configured")
		}
		return domain.ParseSourcePath(r.defaultPath), nil
	}

	p, ok := r.paths[name]
	if !ok {
		return domain.PathInfo{}, domain.NewRequestError(domain.ErrSourceNotFound,
			fmt.Sprintf("no-image path %q is not configured", name))
	}
	return domain.ParseSourcePath(p), nil
}

// IsNoImage reports whether path is the default or any named fallback.
func (r *NoImageResolver) IsNoImage(path string) bool {
	if path == r.defaultPath && path != "" {
		return true
	}
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

// ResolveNoImage evaluates the configured patterns against the
// requested path in order and returns the first matching named
// fallback, or the default when none match.
func (r *NoImageResolver) ResolveNoImage(path string) (domain.PathInfo, error) {
	for _, p := range r.patterns {
		if p.re.MatchString(path) {
			return r.GetNoImage(p.name)
		}
	}
	return r.GetNoImage("")
}
