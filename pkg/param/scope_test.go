package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeIsASnapshot(t *testing.T) {
	params := map[string]Parameter{"a": IntLiteral(1)}
	s := NewScope(params)
	params["a"] = IntLiteral(2)
	params["b"] = IntLiteral(3)

	p, ok := s.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, IntLiteral(1), p)

	_, ok = s.Lookup("b")
	assert.False(t, ok)
}

func TestScopeLookupWalksParents(t *testing.T) {
	root := NewScope(map[string]Parameter{"a": IntLiteral(1), "b": IntLiteral(1)})
	child := root.Push(map[string]Parameter{"b": IntLiteral(2)})

	p, ok := child.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, IntLiteral(1), p)

	p, ok = child.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, IntLiteral(2), p)

	_, ok = child.Local("a")
	assert.False(t, ok)

	assert.Same(t, root, child.Parent())
	assert.Nil(t, root.Parent())
}

func TestScopeNames(t *testing.T) {
	root := NewScope(map[string]Parameter{"z": IntLiteral(1), "a": IntLiteral(1)})
	child := root.Push(map[string]Parameter{"m": IntLiteral(2), "a": IntLiteral(2)})

	assert.Equal(t, []string{"a", "m"}, child.Names())
	assert.Equal(t, []string{"a", "m", "z"}, child.Visible())
}

func TestNilScope(t *testing.T) {
	var s *Scope
	_, ok := s.Lookup("a")
	assert.False(t, ok)
	assert.Nil(t, s.Names())
	assert.Empty(t, s.Visible())

	child := s.Push(map[string]Parameter{"a": IntLiteral(1)})
	_, ok = child.Lookup("a")
	assert.True(t, ok)
}
