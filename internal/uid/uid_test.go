package uid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_PrefixAndOrdering(t *testing.T) {
	g := NewGenerator()

	a := g.New(KindNaturalPerson)
	b := g.New(KindNaturalPerson)

	assert.Equal(t, KindNaturalPerson, KindOf(a))
	assert.NotEqual(t, a, b)
	// Monotonic entropy keeps identifiers strictly ordered in-process.
	assert.Less(t, a, b)
}

func TestKindOf(t *testing.T) {
	g := NewGenerator()

	assert.Equal(t, KindLegalEntity, KindOf(g.New(KindLegalEntity)))
	assert.Equal(t, KindDepartment, KindOf(g.New(KindDepartment)))

	assert.Equal(t, Kind(""), KindOf(""))
	assert.Equal(t, Kind(""), KindOf("np"))
	assert.Equal(t, Kind(""), KindOf("np_"))
	assert.Equal(t, Kind(""), KindOf("xx_01J00000000000000000000000"))
}
