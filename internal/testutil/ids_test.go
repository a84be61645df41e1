package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDSequence_Increments(t *testing.T) {
	seq := NewIDSequence("find")

	assert.Equal(t, 0, seq.Issued())
	assert.Equal(t, "find-1", seq.Next())
	assert.Equal(t, "find-2", seq.Next())
	assert.Equal(t, 2, seq.Issued())
}

func TestIDSequence_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "op-1", NewIDSequence("").Next())
}

func TestIDSequence_Reset(t *testing.T) {
	seq := NewIDSequence("x")
	seq.Next()
	seq.Next()
	seq.Reset()
	assert.Equal(t, "x-1", seq.Next())
}

func TestIDSequence_Concurrent(t *testing.T) {
	seq := NewIDSequence("c")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				seq.Next()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000, seq.Issued())
	assert.Equal(t, "c-1001", seq.Next())
}

func TestFixedID(t *testing.T) {
	gen := FixedID("op-7")
	assert.Equal(t, "op-7", gen())
	assert.Equal(t, "op-7", gen())
}
