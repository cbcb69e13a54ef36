package script

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ironsheep/inscription-decoder/internal/logging"
)

//go:embed data/transliteration.json data/gloss.json
var defaultTables embed.FS

// Tables is a loaded pair of transliteration and gloss tables.
type Tables struct {
	Transliteration *TransliterationTable
	Gloss           *GlossTable
}

// Equal reports whether both sets hold the same entries.
func (t *Tables) Equal(o *Tables) bool {
	return t.Transliteration.Table.Equal(o.Transliteration.Table) && t.Gloss.Table.Equal(o.Gloss.Table)
}

// Source names where tables come from. Empty paths select the built-in
// Tamil-Brahmi tables.
type Source struct {
	TransliterationPath string `mapstructure:"transliteration" json:"transliteration"`
	GlossPath           string `mapstructure:"gloss" json:"gloss"`
}

// LoadTables reads both tables described by src.
func LoadTables(src Source) (*Tables, error) {
	tt, err := loadTable(src.TransliterationPath, "data/transliteration.json")
	if err != nil {
		return nil, fmt.Errorf("transliteration table: %w", err)
	}
	gt, err := loadTable(src.GlossPath, "data/gloss.json")
	if err != nil {
		return nil, fmt.Errorf("gloss table: %w", err)
	}
	return &Tables{
		Transliteration: &TransliterationTable{Table: tt},
		Gloss:           &GlossTable{Table: gt},
	}, nil
}

// DefaultTables returns the built-in tables.
func DefaultTables() (*Tables, error) {
	return LoadTables(Source{})
}

func loadTable(path, embedded string) (*Table, error) {
	if path != "" {
		return LoadTableFile(path)
	}
	data, err := defaultTables.ReadFile(embedded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableLoad, err)
	}
	return ReadTable(bytes.NewReader(data), FormatJSON)
}

// Registry owns the process-wide tables.
//
// Init loads them at most once. Reload loads them again and swaps them in only
// on success.
type Registry struct {
	src    Source
	static bool
	logger *slog.Logger

	once sync.Once

	mu      sync.Mutex // serialises loads and guards loadErr
	loadErr error
	current atomic.Pointer[Tables]
}

// NewRegistry returns an uninitialised registry reading from src.
func NewRegistry(src Source) *Registry {
	return &Registry{src: src, logger: logging.ForModule("script")}
}

// NewStaticRegistry returns a registry already holding t. Init and Reload
// leave t in place.
func NewStaticRegistry(t *Tables) *Registry {
	r := &Registry{static: true, logger: logging.ForModule("script")}
	r.once.Do(func() {})
	r.current.Store(t)
	return r
}

// Init loads the tables if no load has been attempted yet. A failed first load
// leaves the registry without tables: Current keeps failing until Reload
// succeeds.
func (r *Registry) Init() error {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		t, err := LoadTables(r.src)
		if err != nil {
			r.loadErr = err
			r.logger.Error("table load failed", "error", err)
			return
		}
		r.current.Store(t)
		r.logTables("tables loaded", t)
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.Load() == nil {
		return r.loadErr
	}
	return nil
}

// Reload re-reads the tables from the configured source. On failure the
// previously loaded tables stay in place.
func (r *Registry) Reload() error {
	if r.static {
		return nil
	}
	// A later Init must not repeat the load.
	r.once.Do(func() {})

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := LoadTables(r.src)
	if err != nil {
		if r.current.Load() == nil {
			r.loadErr = err
		}
		r.logger.Warn("table reload failed, keeping previous tables", "error", err)
		return err
	}
	if prev := r.current.Load(); prev != nil && prev.Equal(t) {
		r.logger.Debug("tables unchanged", "transliteration_entries", t.Transliteration.Len(), "gloss_entries", t.Gloss.Len())
		return nil
	}
	r.current.Store(t)
	r.loadErr = nil
	r.logTables("tables reloaded", t)
	return nil
}

// Current returns the loaded tables, or an ErrTableLoad error if none are
// loaded.
func (r *Registry) Current() (*Tables, error) {
	if t := r.current.Load(); t != nil {
		return t, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return nil, fmt.Errorf("%w: tables not initialised", ErrTableLoad)
}

// Source returns where the registry reads from.
func (r *Registry) Source() Source { return r.src }

func (r *Registry) logTables(msg string, t *Tables) {
	r.logger.Info(msg,
		"transliteration_entries", t.Transliteration.Len(),
		"gloss_entries", t.Gloss.Len(),
		"transliteration_path", r.src.TransliterationPath,
		"gloss_path", r.src.GlossPath)
}
