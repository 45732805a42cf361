package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionToggle(t *testing.T) {
	var s Selection
	assert.Equal(t, []string{"命宫"}, s.Targets())
	assert.Empty(t, s.Extras())
	assert.NotNil(t, s.Extras())

	s, err := s.Toggle("夫妻")
	require.NoError(t, err)
	s, err = s.Toggle("财帛")
	require.NoError(t, err)
	assert.Equal(t, []string{"命宫", "夫妻", "财帛"}, s.Targets())

	s, err = s.Toggle("夫妻")
	require.NoError(t, err)
	assert.Equal(t, []string{"财帛"}, s.Extras())
}

func TestSelectionLifePalaceFixed(t *testing.T) {
	s, err := NewSelection("命宫", "迁移", "命宫")
	require.NoError(t, err)
	assert.Equal(t, []string{"迁移"}, s.Extras())
	assert.Equal(t, []string{"命宫", "迁移"}, s.Targets())
}

func TestSelectionUnknownPalace(t *testing.T) {
	_, err := NewSelection("夫妻", "天宫")
	assert.Error(t, err)
}

func TestSelectionImmutable(t *testing.T) {
	a, err := NewSelection("夫妻")
	require.NoError(t, err)
	b, err := a.Toggle("子女")
	require.NoError(t, err)

	assert.Equal(t, []string{"夫妻"}, a.Extras())
	assert.Equal(t, []string{"夫妻", "子女"}, b.Extras())

	extras := b.Extras()
	extras[0] = "父母"
	assert.Equal(t, []string{"夫妻", "子女"}, b.Extras())
}
