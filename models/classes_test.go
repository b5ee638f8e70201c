package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelsOrder(t *testing.T) {
	expected := []string{
		"Abimanyu", "Antasena", "Arjuna", "Bagong", "Bima", "Cepot", "Gareng",
		"Gatot Kaca", "Hanoman", "Kresna", "Nakula", "Petruk", "Semar", "Yudhistira",
	}
	require.Equal(t, 14, Labels.Len())
	assert.Equal(t, expected, Labels.Names())

	for i, c := range Labels.Classes {
		assert.Equal(t, i, c.Index, "index must match position for %s", c.Name)
		assert.NotEmpty(t, c.Description, "%s has no description", c.Name)
	}
}

func TestLabelsLookup(t *testing.T) {
	idx, ok := Labels.Index("Gatot Kaca")
	require.True(t, ok)
	assert.Equal(t, 7, idx)

	c, err := Labels.Class(12)
	require.NoError(t, err)
	assert.Equal(t, "Semar", c.Name)

	_, err = Labels.Class(14)
	assert.Error(t, err)
	_, err = Labels.Class(-1)
	assert.Error(t, err)

	assert.True(t, Labels.Contains("Petruk"))
	assert.False(t, Labels.Contains("Rahwana"))
}
