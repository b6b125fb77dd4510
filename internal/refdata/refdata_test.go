package refdata

import (
	"testing"

	"github.com/robby/learnhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T) *Data {
	t.Helper()
	d, err := Load()
	require.NoError(t, err)
	return d
}

func TestLoad_Embedded(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	countries := d.Countries()
	assert.Contains(t, countries, "Nigeria")
	assert.Equal(t, domain.OtherLabel, countries[len(countries)-1])
}

func TestStates(t *testing.T) {
	d := mustLoad(t)

	t.Run("known country", func(t *testing.T) {
		states := d.States(domain.Specific("Nigeria"))
		assert.Contains(t, states, "Lagos")
		assert.Equal(t, domain.OtherLabel, states[len(states)-1])
	})

	t.Run("case insensitive", func(t *testing.T) {
		assert.Contains(t, d.States(domain.Specific("ghana")), "Greater Accra")
	})

	t.Run("other country", func(t *testing.T) {
		assert.Equal(t, []string{domain.OtherLabel}, d.States(domain.Other()))
	})

	t.Run("unset", func(t *testing.T) {
		assert.Equal(t, []string{domain.OtherLabel}, d.States(domain.Unset()))
	})
}

func TestHasState(t *testing.T) {
	d := mustLoad(t)
	assert.True(t, d.HasState("Nigeria", "lagos"))
	assert.False(t, d.HasState("Nigeria", "Nairobi"))
	assert.False(t, d.HasState("Atlantis", "Lagos"))
}

func TestToolsForTrack(t *testing.T) {
	d := mustLoad(t)

	tools := d.ToolsForTrack("frontend-development")
	assert.Contains(t, tools, "React")

	// Returned slice is a copy
	tools[0] = "changed"
	assert.NotEqual(t, "changed", d.ToolsForTrack("frontend-development")[0])

	assert.Empty(t, d.ToolsForTrack("underwater-basket-weaving"))
}

func TestParse_Sorted(t *testing.T) {
	countries := []byte(`
- name: Zambia
  states: [Lusaka]
- name: Angola
  states: [Luanda, Benguela]
`)
	d, err := Parse(countries, []byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Angola", "Zambia", domain.OtherLabel}, d.Countries())
	assert.Equal(t, []string{"Benguela", "Luanda", domain.OtherLabel}, d.States(domain.Specific("Angola")))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("- name: [unclosed"), []byte("{}"))
	assert.Error(t, err)

	_, err = Parse([]byte("- code: XX"), []byte("{}"))
	assert.Error(t, err)
}
