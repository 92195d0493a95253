package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/meme"
)

func TestSequentialGenerator_Counts(t *testing.T) {
	gen := NewSequentialGenerator("")

	assert.Equal(t, "00000000-0000-1000-8000-000000000001", gen.Generate())
	assert.Equal(t, "00000000-0000-1000-8000-000000000002", gen.Generate())
	assert.Equal(t, 2, gen.Count())
	assert.Equal(t, meme.Identity(gen.Generate()), ID(3))
}

func TestSequentialGenerator_Prefix(t *testing.T) {
	gen := NewSequentialGenerator("abcdef01")
	assert.Equal(t, "abcdef01-0000-1000-8000-000000000001", gen.Generate())
}

func TestSequentialGenerator_Reset(t *testing.T) {
	gen := NewSequentialGenerator("")
	first := gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, 0, gen.Count())
	assert.Equal(t, first, gen.Generate())
}

func TestSequentialGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialGenerator("")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				gen.Generate()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, gen.Count())
}

func TestSequentialIdentitiesDecode(t *testing.T) {
	codec, _ := NewCodec()

	id := codec.Mint()
	_, err := meme.Decode(id)
	require.NoError(t, err)

	branched, err := codec.Branch(id)
	require.NoError(t, err)
	assert.Equal(t, id+"-1-0001", branched)
}

func TestNewNotebook(t *testing.T) {
	doc := NewNotebook(3)

	require.Len(t, doc.Cells, 3)
	assert.Equal(t, []string{"cell 0", "cell 1", "cell 2"}, Sources(doc))
	assert.Nil(t, doc.Metadata.Lineage)
	for _, c := range doc.Cells {
		assert.Nil(t, c.Metadata.Lineage)
	}
}
