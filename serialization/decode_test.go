package serialization

import (
	"bytes"
	"compress/gzip"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apple struct {
	Variety string
	Redness int
}

func gzipString(x string) []byte {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	w.Write([]byte(x))
	w.Close()
	return b.Bytes()
}

func TestJSON(t *testing.T) {
	var apples []*apple
	d := []byte(`{"Variety": "x", "Redness": 2}{"Variety": "y", "Redness": 3}`)
	err := decodeAs(bytes.NewBuffer(d), "foo.json", func(a *apple) {
		apples = append(apples, a)
	})
	require.NoError(t, err)
	assert.Len(t, apples, 2)
}

func TestGzippedJSON(t *testing.T) {
	var apples []*apple
	d := gzipString(`{"Variety": "x", "Redness": 2}{"Variety": "y", "Redness": 3}`)
	err := decodeAs(bytes.NewBuffer(d), "bar.json.gz", func(a *apple) {
		apples = append(apples, a)
	})
	require.NoError(t, err)
	assert.Len(t, apples, 2)
}

func TestUnknownExtension(t *testing.T) {
	err := decodeAs(bytes.NewBuffer(nil), "foo.tsv", func(a *apple) {})
	require.Error(t, err)
}

func TestGobRoundTrip(t *testing.T) {
	dir, err := ioutil.TempDir("", "serialization-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "apple.gob")
	in := apple{Variety: "x", Redness: 2}
	require.NoError(t, Encode(path, in))

	var out apple
	require.NoError(t, Decode(path, &out))
	assert.Equal(t, in, out)
}
