package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplement_tracker/internal/domain/schedule"
)

func TestParseCycle(t *testing.T) {
	c, err := parseCycle("5/2")
	require.NoError(t, err)
	assert.Equal(t, &schedule.Cycle{On: 5, Off: 2}, c)

	c, err = parseCycle(" 21 / 7 ")
	require.NoError(t, err)
	assert.Equal(t, 21, c.On)
	assert.Equal(t, 7, c.Off)

	for _, bad := range []string{"5", "5/2/1", "a/2", "5/b"} {
		_, err := parseCycle(bad)
		assert.Error(t, err, bad)
	}
}

func TestSupplementInputFromFlags(t *testing.T) {
	cmd := supplementAddCmd
	require.NoError(t, cmd.Flags().Parse([]string{"--start", "2024-01-01", "--cycle", "5/2", "--servings", "90", "--times", "08:00,20:00"}))

	in, err := supplementInputFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", in.StartDate)
	require.NotNil(t, in.Cycle)
	assert.Equal(t, 5, in.Cycle.On)
	require.NotNil(t, in.Servings)
	assert.Equal(t, 90.0, *in.Servings)
	assert.Equal(t, []string{"08:00", "20:00"}, in.Times)
}
