package imgconvert

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/imgconvert/pipeline"
)

func result(data string) *pipeline.Result {
	return &pipeline.Result{Data: []byte(data), MIMEType: "image/png", Size: len(data), Width: 2, Height: 1}
}

func TestArtifactStore_PutOpenRelease(t *testing.T) {
	s := NewArtifactStore(0)

	a, err := s.Put(result("pixels"), "photo.png")
	require.NoError(t, err)
	assert.Equal(t, "photo.png", a.Name)
	assert.Equal(t, int64(6), a.Size)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(6), s.Size())

	rc, err := s.Open(a.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "pixels", string(data))

	require.NoError(t, s.Release(a.ID))
	assert.Zero(t, s.Len())
	assert.Zero(t, s.Size())

	err = s.Release(a.ID)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
	assert.True(t, IsNotFound(err))

	_, err = s.Open(a.ID)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestArtifactStore_SameContentDistinctIDs(t *testing.T) {
	s := NewArtifactStore(0)

	a, err := s.Put(result("same"), "a.png")
	require.NoError(t, err)
	b, err := s.Put(result("same"), "b.png")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, strings.SplitN(a.ID, "-", 2)[0], strings.SplitN(b.ID, "-", 2)[0], "content hash prefix is shared")

	require.NoError(t, s.Release(a.ID))
	_, err = s.Get(b.ID)
	assert.NoError(t, err, "releasing one handle leaves the other")
}

func TestArtifactStore_Cap(t *testing.T) {
	s := NewArtifactStore(10)

	a, err := s.Put(result("123456"), "a.png")
	require.NoError(t, err)

	_, err = s.Put(result("12345"), "b.png")
	require.ErrorIs(t, err, ErrStoreFull)
	assert.Equal(t, 1, s.Len())

	_, err = s.Put(result("1234"), "c.png")
	require.NoError(t, err, "exactly at the cap is allowed")

	require.NoError(t, s.Release(a.ID))
	_, err = s.Put(result("12345"), "b.png")
	assert.NoError(t, err)
}

func TestArtifactStore_List(t *testing.T) {
	s := NewArtifactStore(0)
	for _, name := range []string{"one.png", "two.jpg", "three.png"} {
		_, err := s.Put(result(name), name)
		require.NoError(t, err)
	}

	all, err := s.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one.png", all[0].Name)
	assert.Equal(t, "three.png", all[2].Name)

	pngs, err := s.List("*.png")
	require.NoError(t, err)
	require.Len(t, pngs, 2)
	assert.Equal(t, "one.png", pngs[0].Name)
	assert.Equal(t, "three.png", pngs[1].Name)

	_, err = s.List("[")
	assert.Error(t, err)
}

func TestArtifact_Checksum(t *testing.T) {
	s := NewArtifactStore(0)
	a, err := s.Put(result("abc"), "x.png")
	require.NoError(t, err)

	sum, err := a.Checksum(ChecksumSHA256)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	xx, err := a.Checksum(ChecksumXXHash)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(a.ID, xx), "artifact id starts with the xxhash of its content")

	_, err = a.Checksum("md4")
	assert.Error(t, err)
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		src, mime, want string
	}{
		{"holiday.HEIC", "image/jpeg", "holiday.jpg"},
		{"/tmp/uploads/scan.tif", "image/png", "scan.png"},
		{"noext", "webp", "noext.webp"},
		{"archive.tar.gz", "image/gif", "archive.tar.gif"},
		{".hidden", "image/bmp", ".hidden.bmp"},
		{"", "image/tiff", "image.tiff"},
		{"x.png", "image/x-unknown", "x.bin"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputName(tt.src, tt.mime), tt.src)
	}
}
