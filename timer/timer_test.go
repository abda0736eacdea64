package timer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Example of combining a timer with a defer so the timing code sits at the
// top of a function.
func Example() {
	defer func(t Timer) {
		dur := t.Finish()
		fmt.Printf("annotated query took %gms\n", dur)
	}(Start())
}

// Example_otherTime for when starting from now isn't quite right.
func Example_otherTime() {
	queued := time.Now().Add(-5 * time.Millisecond)
	t := New(queued)
	dur := t.Finish()
	fmt.Printf("query waited %gms\n", dur)
}

func TestFinish(t *testing.T) {
	tm := New(time.Now().Add(-10 * time.Millisecond))
	first := tm.Finish()
	assert.GreaterOrEqual(t, first, 10.0)
	assert.GreaterOrEqual(t, tm.Finish(), first, "finish can be called again")

	assert.GreaterOrEqual(t, Start().Finish(), 0.0)
}
