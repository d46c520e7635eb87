package producer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func collect(t *testing.T, p interface {
	Produce(context.Context, func(domain.Incoming) error) error
}) []domain.Incoming {
	t.Helper()
	var out []domain.Incoming
	require.NoError(t, p.Produce(context.Background(), func(in domain.Incoming) error {
		out = append(out, in)
		return nil
	}))
	return out
}

func TestFileProducer(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "case_20190304.json"), `{"title":"no id"}`)
	writeFile(t, filepath.Join(dir, "a", "x.json"), `{"id":"x1","title":"X"}`)
	writeFile(t, filepath.Join(dir, "a", "broken.json"), `{"id":`)
	writeFile(t, filepath.Join(dir, "a", "notes.txt"), `skip`)
	writeFile(t, filepath.Join(dir, ".hidden", "h.json"), `{"id":"h"}`)
	writeFile(t, filepath.Join(dir, domain.IndexFileName), `{}`)

	items := collect(t, NewFileProducer(dir))
	require.Len(t, items, 3)

	assert.Equal(t, filepath.Join(dir, "a", "broken.json"), items[0].Origin)
	assert.Error(t, items[0].Err)

	assert.Equal(t, "x1", items[1].Document.ID)

	assert.Equal(t, "case_20190304", items[2].Document.ID)
	assert.Equal(t, filepath.Join(dir, "b", "case_20190304.json"), items[2].Origin)
}

func TestFileProducer_SingleFileAndMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.json")
	writeFile(t, path, `{"id":"one"}`)

	items := collect(t, NewFileProducer(path))
	require.Len(t, items, 1)
	assert.Equal(t, "one", items[0].Document.ID)

	err := NewFileProducer(filepath.Join(dir, "absent")).Produce(context.Background(), func(domain.Incoming) error { return nil })
	assert.Error(t, err)
}

func TestFileProducer_StopsOnEmitError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"id":"a"}`)
	writeFile(t, filepath.Join(dir, "b.json"), `{"id":"b"}`)

	stop := errors.New("stop")
	n := 0
	err := NewFileProducer(dir).Produce(context.Background(), func(domain.Incoming) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

func TestSyntheticProducer_Deterministic(t *testing.T) {
	first := collect(t, NewSyntheticProducer(40, 7))
	second := collect(t, NewSyntheticProducer(40, 7))
	require.Len(t, first, 40)

	ids := make(map[string]bool)
	for i := range first {
		a, b := first[i].Document, second[i].Document
		assert.Equal(t, a.ID, b.ID)
		assert.Equal(t, a.Content, b.Content)
		assert.NoError(t, domain.ValidateID(a.ID))
		assert.NotEmpty(t, a.DateFiled)
		ids[a.ID] = true
	}
	assert.Len(t, ids, 40)

	other := collect(t, NewSyntheticProducer(1, 8))
	assert.NotEqual(t, first[0].Document.ID, other[0].Document.ID)
}

func TestSyntheticProducer_Undated(t *testing.T) {
	p := NewSyntheticProducer(20, 1)
	p.Undated = 1
	for _, in := range collect(t, p) {
		assert.Empty(t, in.Document.DateFiled)
	}

	p.FromYear, p.ToYear = 2020, 2010
	assert.Error(t, p.Produce(context.Background(), func(domain.Incoming) error { return nil }))
}

func TestWatchProducer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "inbox")
	writeFile(t, filepath.Join(dir, "early.json"), `{"id":"early"}`)

	log, _ := test.NewNullLogger()
	w := NewWatchProducer(dir, log)
	w.SettleDelay = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan domain.Incoming, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	var produceErr error
	go func() {
		defer wg.Done()
		produceErr = w.Produce(ctx, func(in domain.Incoming) error {
			got <- in
			return nil
		})
	}()

	first := receive(t, got)
	assert.Equal(t, "early", first.Document.ID)
	w.Settle(first.Origin, true)
	assert.NoFileExists(t, first.Origin)

	writeFile(t, filepath.Join(dir, "late.json"), `{"id":"late"}`)
	writeFile(t, filepath.Join(dir, ".late.json.tmp"), `{"id":"hidden"}`)

	second := receive(t, got)
	assert.Equal(t, "late", second.Document.ID)

	// A rewrite while in flight is not emitted again
	writeFile(t, second.Origin, `{"id":"late"}`)
	select {
	case in := <-got:
		t.Fatalf("unexpected emission of %s", in.Origin)
	case <-time.After(100 * time.Millisecond):
	}

	w.Settle(second.Origin, false)
	assert.FileExists(t, second.Origin)

	cancel()
	wg.Wait()
	assert.ErrorIs(t, produceErr, context.Canceled)
}

func receive(t *testing.T, ch <-chan domain.Incoming) domain.Incoming {
	t.Helper()
	select {
	case in := <-ch:
		require.NoError(t, in.Err)
		return in
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a document")
		return domain.Incoming{}
	}
}
