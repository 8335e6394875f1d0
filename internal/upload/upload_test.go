package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nurlan6812/food-agent/internal/common/errors"
	httpclient "github.com/nurlan6812/food-agent/internal/common/http"
	"github.com/nurlan6812/food-agent/internal/common/logger"
)

// jpegWithOrientation encodes a w×h JPEG and splices in an APP1 segment carrying
// a single Orientation entry.
func jpegWithOrientation(t *testing.T, w, h int, orientation uint16) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	raw := buf.Bytes()

	tiff := []byte{
		'I', 'I', 0x2A, 0x00, 0x08, 0x00, 0x00, 0x00,
		0x01, 0x00,
		0x12, 0x01, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00,
		byte(orientation), byte(orientation >> 8), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	length := len(payload) + 2
	segment := append([]byte{0xFF, 0xE1, byte(length >> 8), byte(length)}, payload...)

	out := append([]byte{}, raw[:2]...)
	out = append(out, segment...)
	return append(out, raw[2:]...)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestExifNormalizer_RotatesClockwise(t *testing.T) {
	src := writeFile(t, "rotated.jpg", jpegWithOrientation(t, 4, 2, 6))
	require.Equal(t, 6, Orientation(src))

	n := &ExifNormalizer{TempDir: t.TempDir()}
	out, cleanup, err := n.Normalize(src)
	require.NoError(t, err)
	assert.NotEqual(t, src, out)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())

	cleanup()
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestExifNormalizer_PassThrough(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "upright", data: jpegWithOrientation(t, 4, 2, 1)},
		{name: "no exif", data: []byte("not an image")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeFile(t, "in.jpg", tt.data)
			out, cleanup, err := NewExifNormalizer().Normalize(src)
			defer cleanup()
			require.NoError(t, err)
			assert.Equal(t, src, out)
		})
	}
}

func TestPerturbCorner(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	img.SetNRGBA(2, 2, color.NRGBA{B: 254, A: 255})

	perturbCorner(img)

	got := img.NRGBAAt(2, 2).B
	assert.True(t, got == 255 || got <= 3, "blue channel %d", got)
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).B)
}

type passNormalizer struct{}

func (passNormalizer) Normalize(path string) (string, func(), error) { return path, func() {}, nil }

func newClient(name string) *httpclient.Client {
	return httpclient.NewClient(name, 2*time.Second)
}

func TestCascade_FirstSuccessWins(t *testing.T) {
	var litterCalls, imgbbCalls, freeCalls int32

	litter := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&litterCalls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer litter.Close()

	imgbb := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&imgbbCalls, 1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "bb-key", r.PostForm.Get("key"))
		assert.Equal(t, "600", r.PostForm.Get("expiration"))
		assert.NotEmpty(t, r.PostForm.Get("image"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"url":"https://i.ibb.co/abc/food.jpg"}}`)
	}))
	defer imgbb.Close()

	free := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&freeCalls, 1)
	}))
	defer free.Close()

	src := writeFile(t, "food.jpg", []byte("jpeg-bytes"))
	c := NewCascade(passNormalizer{}, []Backend{
		NewLitterbox(litter.URL, "1h", newClient("litterbox")),
		NewImgBB(imgbb.URL, "bb-key", "600", newClient("imgbb")),
		NewFreeImage(free.URL, "fi-key", newClient("freeimage")),
	}, logger.NewTestLogger(t))

	link, err := c.Resolve(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/abc/food.jpg", link)
	assert.Equal(t, int32(1), atomic.LoadInt32(&litterCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&imgbbCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(&freeCalls))
}

func TestCascade_Litterbox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "fileupload", r.FormValue("reqtype"))
		assert.Equal(t, "1h", r.FormValue("time"))
		f, _, err := r.FormFile("fileToUpload")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg-bytes", string(data))
		_, _ = io.WriteString(w, "https://litter.catbox.moe/xyz.jpg\n")
	}))
	defer srv.Close()

	src := writeFile(t, "food.jpg", []byte("jpeg-bytes"))
	c := NewCascade(passNormalizer{}, []Backend{NewLitterbox(srv.URL, "1h", newClient("litterbox"))}, logger.NewNoOpLogger())

	link, err := c.Resolve(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "https://litter.catbox.moe/xyz.jpg", link)
}

func TestCascade_AllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>error</html>")
	}))
	defer bad.Close()

	src := writeFile(t, "food.jpg", []byte("jpeg-bytes"))
	c := NewCascade(passNormalizer{}, []Backend{
		NewLitterbox(bad.URL, "1h", newClient("litterbox")),
		NewImgBB(bad.URL, "", "600", newClient("imgbb")),
		NewFreeImage(bad.URL, "", newClient("freeimage")),
	}, logger.NewNoOpLogger())

	link, err := c.Resolve(context.Background(), src)
	assert.Empty(t, link)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoUploadURL))
	assert.Equal(t, apperrors.KindBadResponse, apperrors.KindOf(err))
}

func TestCascade_RemoteBypass(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewCascade(passNormalizer{}, []Backend{NewLitterbox(srv.URL, "1h", newClient("litterbox"))}, logger.NewNoOpLogger())

	for _, src := range []string{"https://example.com/a.jpg", "http://example.com/b.png"} {
		link, err := c.Resolve(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, src, link)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestCascade_MissingFile(t *testing.T) {
	c := NewCascade(passNormalizer{}, nil, logger.NewNoOpLogger())
	_, err := c.Resolve(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestFreeImage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "fi-key", r.FormValue("key"))
		_, _, err := r.FormFile("source")
		require.NoError(t, err)
		_, _ = io.WriteString(w, `{"status_code":200,"image":{"url":"https://iili.io/food.jpg"}}`)
	}))
	defer srv.Close()

	src := writeFile(t, "food.jpg", []byte("jpeg-bytes"))
	link, err := NewFreeImage(srv.URL, "fi-key", newClient("freeimage")).Upload(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "https://iili.io/food.jpg", link)
}
