package evidence

import (
	"errors"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roof-watch-go/internal/frame"
	"roof-watch-go/internal/timeutil"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testStore(t *testing.T) (*Store, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2024, 9, 1, 10, 15, 30, 123_000_000, time.UTC))
	s, err := NewStore(filepath.Join(t.TempDir(), "alerts"), clock, testLogger())
	require.NoError(t, err)
	return s, clock
}

func testFrame() *frame.Frame {
	return &frame.Frame{Seq: 9, Image: image.NewRGBA(image.Rect(0, 0, 12, 10))}
}

func TestStore_CreatesDirectory(t *testing.T) {
	s, _ := testStore(t)

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_SaveAlertFrame(t *testing.T) {
	s, _ := testStore(t)

	path, err := s.SaveAlertFrame(testFrame())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.Dir(), "alert_20240901_101530.123.jpg"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 12, img.Bounds().Dx())
}

func TestStore_NamesAreUniqueWithinSameMillisecond(t *testing.T) {
	s, clock := testStore(t)

	first, err := s.SaveAlertFrame(testFrame())
	require.NoError(t, err)
	second, err := s.SaveAlertFrame(testFrame())
	require.NoError(t, err)

	clock.Advance(time.Millisecond)
	third, err := s.SaveAlertFrame(testFrame())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "alert_20240901_101530.123_1.jpg", filepath.Base(second))
	assert.Equal(t, "alert_20240901_101530.124.jpg", filepath.Base(third))
}

func TestStore_SaveSnapshot(t *testing.T) {
	s, _ := testStore(t)

	path, err := s.SaveSnapshot(testFrame())
	require.NoError(t, err)
	assert.Equal(t, "snapshot_20240901_101530.123.jpg", filepath.Base(path))
}

func TestStore_NilFrame(t *testing.T) {
	s, _ := testStore(t)

	_, err := s.SaveAlertFrame(nil)
	assert.Error(t, err)
}

func TestStore_Remove(t *testing.T) {
	s, _ := testStore(t)
	path, err := s.SaveAlertFrame(testFrame())
	require.NoError(t, err)

	require.NoError(t, s.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, s.Remove(path))
}

func TestStore_CloseErrorDiscardsFrame(t *testing.T) {
	s, _ := testStore(t)
	s.closeFile = func(f *os.File) error {
		f.Close()
		return errors.New("no space left on device")
	}

	path, err := s.SaveAlertFrame(testFrame())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no space left on device")
	assert.Empty(t, path)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
