// Package workspace ties configuration, schemas and documents together and
// exposes the tag name operations used by the CLI and the MCP server.
package workspace

import (
	"errors"
	"sync"

	"github.com/standardbeagle/tagsense/internal/completion"
	"github.com/standardbeagle/tagsense/internal/config"
	"github.com/standardbeagle/tagsense/internal/extension"
	"github.com/standardbeagle/tagsense/internal/metrics"
	"github.com/standardbeagle/tagsense/internal/resolve"
	"github.com/standardbeagle/tagsense/internal/schema"
)

// ErrNoReference is returned by editing operations when the offset is not
// on a tag name
var ErrNoReference = errors.New("no tag name at offset")

// Workspace is safe for concurrent use
type Workspace struct {
	cfg      *config.Config
	xsd      *schema.XSDProvider
	tagDirs  *schema.TagDirProvider
	registry *schema.Registry
	state    resolve.State
	fuzzy    *completion.FuzzyMatcher
	metrics  *metrics.Metrics

	extensions []extension.Extension
	providers  []completion.TagNameProvider

	mu   sync.RWMutex
	docs map[string]*cachedDoc

	schemaMu    sync.Mutex // serializes reloads
	schemaFiles []string
}

// Option configures a Workspace
type Option func(*Workspace)

// WithExtensions installs extensions tried before the default one
func WithExtensions(exts ...extension.Extension) Option {
	return func(w *Workspace) { w.extensions = append(w.extensions, exts...) }
}

// WithTagNameProviders replaces the variant providers of the default extension
func WithTagNameProviders(providers ...completion.TagNameProvider) Option {
	return func(w *Workspace) { w.providers = providers }
}

// WithMetrics shares a metrics set instead of creating one
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workspace) { w.metrics = m }
}

// New creates a workspace for cfg. Schemas are not loaded until LoadSchemas.
func New(cfg *config.Config, opts ...Option) *Workspace {
	w := &Workspace{
		cfg:  cfg,
		docs: make(map[string]*cachedDoc),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.metrics == nil {
		w.metrics = metrics.New()
	}

	w.xsd = schema.NewXSDProvider(schema.WithMaxFileSize(cfg.Schemas.MaxFileSize))
	w.tagDirs = schema.NewTagDirProvider()
	w.registry = schema.NewRegistry(w.xsd, w.tagDirs)
	w.state = stateFromConfig(cfg)
	w.fuzzy = completion.NewFuzzyMatcher(cfg.Completion.Fuzzy, cfg.Completion.FuzzyThreshold)

	w.extensions = append(w.extensions, extension.NewDefaultExtension(w.registry, w.state, w.providers...))
	return w
}

func stateFromConfig(cfg *config.Config) resolve.State {
	s := resolve.Initial(resolve.StandardDefaults())
	s = resolve.Put(s, resolve.StripFileSuffix, cfg.Completion.StripFileSuffix)
	s = resolve.Put(s, resolve.StrictLookup, cfg.Completion.StrictLookup)
	s = resolve.Put(s, resolve.ClosingTagPrefix, cfg.Completion.ClosingTagPrefix)
	return s
}

func (w *Workspace) Config() *config.Config          { return w.cfg }
func (w *Workspace) Registry() *schema.Registry      { return w.registry }
func (w *Workspace) Metrics() *metrics.Metrics       { return w.metrics }
func (w *Workspace) XSD() *schema.XSDProvider        { return w.xsd }
func (w *Workspace) TagDirs() *schema.TagDirProvider { return w.tagDirs }

// Extensions returns the installed extensions in lookup order
func (w *Workspace) Extensions() []extension.Extension { return w.extensions }
