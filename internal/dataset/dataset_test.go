package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `mes,producto,region,ventas
Jan,A,Norte,10
Jan,B,Sur,20
Feb,A,Norte,30
`

type fakeGetter struct {
	body   string
	err    error
	calls  int
	bucket string
	key    string
}

func (f *fakeGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	f.bucket = *in.Bucket
	f.key = *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestParseCSV(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("\ufeffmes, producto ,region,ventas\nJan, A ,Norte,10\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"mes", "producto", "region", "ventas"}, table.Columns())
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, []string{"Jan", "A", "Norte", "10"}, table.Row(0))

	idx, ok := table.ColumnIndex("ventas")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)
	_, ok = table.ColumnIndex("missing")
	assert.False(t, ok)
}

func TestParseCSVErrors(t *testing.T) {
	tests := map[string]string{
		"empty":            "",
		"ragged row":       "mes,ventas\nJan,10,extra\n",
		"duplicate column": "mes,mes\nJan,Feb\n",
		"empty column":     "mes,,ventas\nJan,x,10\n",
		"bad quoting":      "mes,ventas\n\"Jan,10\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestHeadClamps(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(salesCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Head(2).Len())
	assert.Equal(t, 3, table.Head(10).Len())
	assert.Equal(t, 0, table.Head(-1).Len())
	assert.Equal(t, 3, table.Len(), "Head must not modify the source table")
}

func TestTextRendering(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(salesCSV))
	require.NoError(t, err)

	text := table.Text()
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"mes", "producto", "region", "ventas"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"Feb", "A", "Norte", "30"}, strings.Fields(lines[3]))
	for _, l := range lines {
		assert.Equal(t, strings.TrimRight(l, " "), l, "no trailing spaces")
	}
}

func TestTextTruncatesWithHead(t *testing.T) {
	var b strings.Builder
	b.WriteString("mes,ventas\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "m%02d,%d\n", i, i)
	}
	table, err := ParseCSV(strings.NewReader(b.String()))
	require.NoError(t, err)

	text := table.Head(10).Text()
	assert.Len(t, strings.Split(text, "\n"), 11)
	assert.Contains(t, text, "m09")
	assert.NotContains(t, text, "m10")
}

func TestLoader(t *testing.T) {
	getter := &fakeGetter{body: salesCSV}
	loader, err := NewLoader(getter, "agustin-lab-bucket01", "data/ventas-2.csv")
	require.NoError(t, err)

	table, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "agustin-lab-bucket01", getter.bucket)
	assert.Equal(t, "data/ventas-2.csv", getter.key)
	assert.Equal(t, "s3://agustin-lab-bucket01/data/ventas-2.csv", loader.Source())

	_, err = loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, getter.calls, "every Load must go back to the object store")
}

func TestLoaderFailures(t *testing.T) {
	tests := map[string]*fakeGetter{
		"fetch error": {err: errors.New("NoSuchKey")},
		"malformed":   {body: "mes,ventas\nJan,10,extra\n"},
		"empty":       {body: ""},
	}
	for name, getter := range tests {
		t.Run(name, func(t *testing.T) {
			loader, err := NewLoader(getter, "b", "k")
			require.NoError(t, err)

			table, err := loader.Load(context.Background())
			assert.Nil(t, table)
			assert.ErrorIs(t, err, ErrDataUnavailable)
		})
	}
}

func TestNewLoaderValidation(t *testing.T) {
	_, err := NewLoader(nil, "b", "k")
	assert.Error(t, err)
	_, err = NewLoader(&fakeGetter{}, "", "k")
	assert.Error(t, err)
	_, err = NewLoader(&fakeGetter{}, "b", "")
	assert.Error(t, err)
}
