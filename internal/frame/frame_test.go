package frame

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func pngBytes(t *testing.T, w, h int, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: shade, B: shade, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDirSource_ReadsFramesInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "002.png"), pngBytes(t, 8, 6, 200), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001.png"), pngBytes(t, 8, 6, 10), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))

	src, err := NewDirSource(dir, testLogger())
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, Info{Width: 8, Height: 6}, src.Info())

	ctx := context.Background()
	first, err := src.Next(ctx)
	require.NoError(t, err)
	second, err := src.Next(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	r, _, _, _ := first.Image.At(0, 0).RGBA()
	assert.Equal(t, uint32(10*0x101), r)
	assert.Equal(t, 8, second.Width())
	assert.Equal(t, 6, second.Height())

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, ErrSourceClosed)
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, ErrSourceClosed, "exhausted source is not restartable")
}

func TestDirSource_MissingDirectory(t *testing.T) {
	_, err := NewDirSource(filepath.Join(t.TempDir(), "missing"), testLogger())
	assert.Error(t, err)
}

func TestDirSource_EmptyDirectory(t *testing.T) {
	src, err := NewDirSource(t.TempDir(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, Info{}, src.Info())
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestDirSource_ClosedAndCancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngBytes(t, 2, 2, 0), 0o644))

	src, err := NewDirSource(dir, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, src.Close())
	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestSnapshotSource_FetchesFrames(t *testing.T) {
	body := pngBytes(t, 5, 4, 128)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	src := NewSnapshotSource(srv.URL, 10*time.Millisecond, testLogger())
	defer src.Close()
	assert.InDelta(t, 100.0, src.Info().FPS, 0.001)

	f1, err := src.Next(context.Background())
	require.NoError(t, err)
	f2, err := src.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), f1.Seq)
	assert.Equal(t, uint64(2), f2.Seq)
	assert.False(t, f2.Timestamp.Before(f1.Timestamp.Add(10*time.Millisecond)))
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 5, src.Info().Width)
	assert.Equal(t, 4, src.Info().Height)
}

func TestSnapshotSource_HTTPErrorEndsSequence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewSnapshotSource(srv.URL, 0, testLogger())
	_, err := src.Next(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0.0, src.Info().FPS)
}

func TestSnapshotSource_InfoAndCloseDoNotWaitForFetch(t *testing.T) {
	body := pngBytes(t, 5, 4, 128)
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	src := NewSnapshotSource(srv.URL, 0, testLogger())

	type result struct {
		f   *Frame
		err error
	}
	fetched := make(chan result, 1)
	go func() {
		f, err := src.Next(context.Background())
		fetched <- result{f, err}
	}()

	select {
	case <-arrived:
	case <-time.After(5 * time.Second):
		t.Fatal("snapshot request was not sent")
	}

	done := make(chan struct{})
	go func() {
		_ = src.Info()
		_ = src.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		close(release)
		t.Fatal("Info and Close blocked while a snapshot was being fetched")
	}

	close(release)
	res := <-fetched
	require.NoError(t, res.err)
	assert.Equal(t, uint64(1), res.f.Seq)

	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, ErrSourceClosed)
}

func TestOpen_ChoosesSourceByURI(t *testing.T) {
	src, err := Open("http://camera.local/snapshot.jpg", time.Second, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &SnapshotSource{}, src)

	src, err = Open(t.TempDir(), time.Second, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &DirSource{}, src)
}

func TestFrame_EncodeJPEG(t *testing.T) {
	f := &Frame{Seq: 1, Image: image.NewRGBA(image.Rect(0, 0, 16, 16))}

	data, err := f.EncodeJPEG()
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 16, cfg.Width)
}
