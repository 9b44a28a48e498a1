package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string         `json:"name"   yaml:"name"`
	Counts map[string]int `json:"counts" yaml:"counts"`
	Values []int          `json:"values" yaml:"values"`
}

func newSample() *sample {
	return &sample{
		Name:   "snapshot",
		Counts: map[string]int{"available": 3, "unavailable": 1},
		Values: []int{120, 80, 95},
	}
}

// --- Codec Tests ---.

func TestCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	codecs := []Codec{NewJSONCodec(), &JSONCodec{}, YAMLCodec{}, NewLZ4JSONCodec()}

	for _, codec := range codecs {
		var buf bytes.Buffer

		require.NoError(t, codec.Encode(&buf, newSample()), codec.Extension())

		var got sample

		require.NoError(t, codec.Decode(&buf, &got), codec.Extension())
		assert.Equal(t, *newSample(), got, codec.Extension())
	}
}

func TestJSONCodec_Indent(t *testing.T) {
	t.Parallel()

	var pretty, compact bytes.Buffer

	require.NoError(t, NewJSONCodec().Encode(&pretty, newSample()))
	require.NoError(t, (&JSONCodec{}).Encode(&compact, newSample()))

	assert.Contains(t, pretty.String(), "\n  \"name\"")
	assert.Equal(t, 1, strings.Count(compact.String(), "\n"))
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()

	var s sample

	require.Error(t, NewJSONCodec().Decode(strings.NewReader("{"), &s))
	require.Error(t, NewLZ4JSONCodec().Decode(strings.NewReader("not lz4"), &s))
}

func TestCodecFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".json.lz4", CodecFor("snap.json.lz4").Extension())
	assert.Equal(t, ".yaml", CodecFor("snap.yml").Extension())
	assert.Equal(t, ".yaml", CodecFor("snap.yaml").Extension())
	assert.Equal(t, ".json", CodecFor("snap.json").Extension())
	assert.Equal(t, ".json", CodecFor("snap").Extension())
}

// --- File Tests ---.

func TestSaveLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json.lz4")

	require.NoError(t, SaveFile(path, CodecFor(path), newSample()))

	var got sample

	require.NoError(t, LoadFile(path, CodecFor(path), &got))
	assert.Equal(t, *newSample(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}

func TestLoadFile_Missing(t *testing.T) {
	t.Parallel()

	var got sample

	err := LoadFile(filepath.Join(t.TempDir(), "absent.json"), NewJSONCodec(), &got)

	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveFile_MissingDir(t *testing.T) {
	t.Parallel()

	err := SaveFile(filepath.Join(t.TempDir(), "no", "such", "x.json"), NewJSONCodec(), newSample())

	require.Error(t, err)
}

func TestPersister(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewPersister[sample]("analysis", YAMLCodec{})

	assert.Equal(t, filepath.Join(dir, "analysis.yaml"), p.Path(dir))
	require.NoError(t, p.Save(dir, newSample()))

	got, err := p.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, newSample(), got)
}

// --- Block Tests ---.

func TestBlock_RoundTrip(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("presence=available rtt=120;", 100))

	block, err := CompressBlock(data)
	require.NoError(t, err)
	assert.Less(t, len(block), len(data))

	out, err := DecompressBlock(block, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecompressBlock_Corrupt(t *testing.T) {
	t.Parallel()

	_, err := DecompressBlock([]byte{0xff, 0xff, 0xff}, 10)

	require.Error(t, err)
}
