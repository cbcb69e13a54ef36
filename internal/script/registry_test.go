package script

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTables_ReferenceEntries(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	for sym, want := range map[string]string{"𑀅": "அ", "𑀓": "க", "𑀸": "வ"} {
		got, ok := tables.Transliteration.Lookup(sym)
		assert.True(t, ok, sym)
		assert.Equal(t, want, got, sym)
	}
	assert.Equal(t, MapEntries("கோ", "Temple", "வன்", "King", "நாதன்", "Lord"), tables.Gloss.Entries())
}

func TestRegistry_InitOnce(t *testing.T) {
	dir := t.TempDir()
	gloss := filepath.Join(dir, "gloss.json")
	require.NoError(t, os.WriteFile(gloss, []byte(`{"a": "first"}`), 0o600))

	r := NewRegistry(Source{GlossPath: gloss})
	require.NoError(t, r.Init())
	first, err := r.Current()
	require.NoError(t, err)

	// A second Init does not reread the file.
	require.NoError(t, os.WriteFile(gloss, []byte(`{"a": "second"}`), 0o600))
	require.NoError(t, r.Init())
	again, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, first, again)

	v, _ := again.Gloss.Lookup("a")
	assert.Equal(t, "first", v)
}

func TestRegistry_MissingFile(t *testing.T) {
	r := NewRegistry(Source{TransliterationPath: filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorIs(t, r.Init(), ErrTableLoad)
	assert.ErrorIs(t, r.Init(), ErrTableLoad)

	_, err := r.Current()
	assert.ErrorIs(t, err, ErrTableLoad)
}

func TestRegistry_EmptyTableFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"transliteration.json", "transliteration.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

			r := NewRegistry(Source{TransliterationPath: path})
			assert.ErrorIs(t, r.Init(), ErrTableLoad)
			_, err := r.Current()
			assert.ErrorIs(t, err, ErrTableLoad)
		})
	}
}

func TestRegistry_CurrentBeforeInit(t *testing.T) {
	_, err := NewRegistry(Source{}).Current()
	assert.ErrorIs(t, err, ErrTableLoad)
}

func TestRegistry_Reload(t *testing.T) {
	dir := t.TempDir()
	gloss := filepath.Join(dir, "gloss.yaml")
	require.NoError(t, os.WriteFile(gloss, []byte("a: first\n"), 0o600))

	r := NewRegistry(Source{GlossPath: gloss})
	require.NoError(t, r.Init())

	require.NoError(t, os.WriteFile(gloss, []byte("a: second\n"), 0o600))
	require.NoError(t, r.Reload())
	cur, err := r.Current()
	require.NoError(t, err)
	v, _ := cur.Gloss.Lookup("a")
	assert.Equal(t, "second", v)

	// A corrupt file keeps the previous tables.
	require.NoError(t, os.WriteFile(gloss, []byte("a: [broken\n"), 0o600))
	assert.ErrorIs(t, r.Reload(), ErrTableLoad)
	kept, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, cur, kept)
}

func TestRegistry_ReloadUnchangedKeepsTables(t *testing.T) {
	gloss := filepath.Join(t.TempDir(), "gloss.json")
	require.NoError(t, os.WriteFile(gloss, []byte(`{"a": "first"}`), 0o600))

	r := NewRegistry(Source{GlossPath: gloss})
	require.NoError(t, r.Init())
	first, err := r.Current()
	require.NoError(t, err)

	// Same entries in another format still count as unchanged.
	require.NoError(t, os.WriteFile(gloss, []byte("{\n  \"a\": \"first\"\n}\n"), 0o600))
	require.NoError(t, r.Reload())
	same, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, first, same)

	require.NoError(t, os.WriteFile(gloss, []byte(`{"a": "first", "b": "second"}`), 0o600))
	require.NoError(t, r.Reload())
	changed, err := r.Current()
	require.NoError(t, err)
	assert.NotSame(t, first, changed)
	assert.False(t, first.Equal(changed))
}

func TestRegistry_ReloadRecoversFailedInit(t *testing.T) {
	gloss := filepath.Join(t.TempDir(), "gloss.json")
	r := NewRegistry(Source{GlossPath: gloss})
	require.ErrorIs(t, r.Init(), ErrTableLoad)

	require.NoError(t, os.WriteFile(gloss, []byte(`{"a": "b"}`), 0o600))
	require.NoError(t, r.Reload())
	require.NoError(t, r.Init())
	_, err := r.Current()
	assert.NoError(t, err)
}

func TestRegistry_ReloadWithoutInit(t *testing.T) {
	r := NewRegistry(Source{})
	require.NoError(t, r.Reload())
	first, err := r.Current()
	require.NoError(t, err)

	// Init after Reload keeps what Reload loaded.
	require.NoError(t, r.Init())
	again, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, first, again)
}

func TestStaticRegistry(t *testing.T) {
	tables := &Tables{
		Transliteration: mustTranslit(t, "x", "y"),
		Gloss:           mustGloss(t, "y", "why"),
	}
	r := NewStaticRegistry(tables)
	require.NoError(t, r.Init())
	require.NoError(t, r.Reload())

	cur, err := r.Current()
	require.NoError(t, err)
	assert.Same(t, tables, cur)
}

func TestRegistry_ConcurrentCurrent(t *testing.T) {
	r := NewRegistry(Source{})
	require.NoError(t, r.Init())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cur, err := r.Current()
				if assert.NoError(t, err) {
					assert.Equal(t, "அ", Transliterate([]string{"𑀅"}, cur.Transliteration))
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 5; j++ {
			assert.NoError(t, r.Reload())
		}
	}()
	wg.Wait()
}
