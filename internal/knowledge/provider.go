package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"opinions-migrate/internal/pkg/logger"
	"opinions-migrate/internal/repository/contract"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Provider hands decoded knowledge payloads to the application. With a
// database configured it reads knowledge_resources; without one it falls
// back to the static JSON files. An empty table is a valid state and does
// not trigger the fallback.
type Provider struct {
	repo    contract.KnowledgeResourceRepository // nil when no database is configured
	baseDir string
	cache   *gocache.Cache
	log     logger.Logger
}

func NewProvider(repo contract.KnowledgeResourceRepository, baseDir string, log logger.Logger) *Provider {
	return &Provider{
		repo:    repo,
		baseDir: baseDir,
		cache:   gocache.New(cacheTTL, cacheCleanup),
		log:     log,
	}
}

// DatabaseConfigured reports which source Get consults.
func (p *Provider) DatabaseConfigured() bool {
	return p.repo != nil
}

// Get returns the payload of one resource, or an empty object when the
// resource does not exist in the active source.
func (p *Provider) Get(ctx context.Context, name string) (json.RawMessage, error) {
	if cached, ok := p.cache.Get(name); ok {
		return cached.(json.RawMessage), nil
	}

	payload, err := p.load(ctx, name)
	if err != nil {
		return nil, err
	}

	p.cache.Set(name, payload, gocache.DefaultExpiration)
	return payload, nil
}

func (p *Provider) load(ctx context.Context, name string) (json.RawMessage, error) {
	if p.repo != nil {
		resource, err := p.repo.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load knowledge resource %s: %w", name, err)
		}
		if resource == nil {
			return json.RawMessage("{}"), nil
		}
		return json.RawMessage(resource.Payload), nil
	}

	path := filepath.Join(p.baseDir, name+".json")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return json.RawMessage("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read knowledge file %s: %w", path, err)
	}
	if !json.Valid(raw) {
		return nil, &ParseError{Path: path, Err: errors.New("invalid JSON")}
	}
	return raw, nil
}

// All returns every resource payload keyed by name.
func (p *Provider) All(ctx context.Context) (map[string]json.RawMessage, error) {
	payloads := make(map[string]json.RawMessage)

	if p.repo != nil {
		resources, err := p.repo.FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load knowledge resources: %w", err)
		}
		for _, resource := range resources {
			payloads[resource.Name] = json.RawMessage(resource.Payload)
		}
		return payloads, nil
	}

	reader := NewReader(p.baseDir)
	err := reader.Each(ctx, func(resource Resource) error {
		payloads[resource.Name] = resource.Payload
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, failure := range reader.Failures() {
		p.log.Warn("knowledge", "skipping malformed knowledge file", map[string]interface{}{
			"path":  failure.Path,
			"error": failure.Err.Error(),
		})
	}
	return payloads, nil
}
