package tui

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/adapters/filesystem"
	"lexshelf/internal/adapters/tui/views"
	"lexshelf/internal/application"
	"lexshelf/internal/domain"
	"lexshelf/internal/logging"
)

const viewsPkg = "lexshelf/internal/adapters/tui/views"

// exec runs cmd, giving up on commands that wait on a timer such as cursor blinks
func exec(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// run feeds msg to the app and then every view message its commands produce
func run(a *App, msg tea.Msg) {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		_, cmd := a.Update(next)
		if cmd == nil {
			continue
		}
		pending := []tea.Cmd{cmd}
		for len(pending) > 0 {
			c := pending[0]
			pending = pending[1:]
			if c == nil {
				continue
			}
			switch out := exec(c).(type) {
			case nil:
			case tea.BatchMsg:
				pending = append(pending, out...)
			default:
				if reflect.TypeOf(out).PkgPath() == viewsPkg {
					queue = append(queue, out)
				}
			}
		}
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	root := t.TempDir()
	p := filepath.Join(root, "2021-2022", "federal_courts", "supreme_court", "scotus_20210615.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(`{"id":"scotus_20210615","title":"Smith v. Jones","jurisdiction":"federal","document_type":"case","content":"The judgment is affirmed."}`), 0644))

	store := filesystem.NewRepository(root)
	indexer := application.NewIndexBuilder(store, nil, domain.DefaultRules(), logging.Discard())
	_, err := indexer.Rebuild(context.Background())
	require.NoError(t, err)

	a := NewApp(store, indexer, domain.DefaultCapacity)
	run(a, tea.WindowSizeMsg{Width: 100, Height: 40})
	run(a, a.Init()())
	require.Equal(t, ViewBrowser, a.State())
	return a
}

func typeText(a *App, s string) {
	for _, r := range s {
		run(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestApp_SearchAndPreview(t *testing.T) {
	a := newTestApp(t)

	typeText(a, "/")
	require.Equal(t, ViewSearch, a.State())

	typeText(a, "smith")
	assert.Contains(t, a.View(), "scotus_20210615")

	run(a, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewPreview, a.State())
	view := a.View()
	assert.Contains(t, view, "Smith v. Jones")
	assert.Contains(t, view, "The judgment is affirmed.")

	// The preview returns to the search it was opened from
	run(a, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewSearch, a.State())
	run(a, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewBrowser, a.State())
}

func TestApp_StatsAndHelp(t *testing.T) {
	a := newTestApp(t)

	typeText(a, "s")
	require.Equal(t, ViewStats, a.State())
	view := a.View()
	assert.Contains(t, view, "Documents:")
	assert.Contains(t, view, "2021-2022 1")

	typeText(a, "s")
	assert.Equal(t, ViewBrowser, a.State())

	typeText(a, "?")
	require.Equal(t, ViewHelp, a.State())
	assert.Contains(t, a.View(), "never holds more than 999 documents")
	typeText(a, "?")
	assert.Equal(t, ViewBrowser, a.State())
}

func TestApp_OpenMissingDocument(t *testing.T) {
	a := newTestApp(t)

	run(a, views.OpenDocumentMsg{RelPath: "2021-2022/x/y/missing.json"})
	assert.Equal(t, ViewPreview, a.State())
	assert.Contains(t, a.View(), "missing.json")
}
