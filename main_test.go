package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimulateRejectsNegativePlayers(t *testing.T) {
	err := newApp().Run([]string{"lottery", "simulate", "--players=-1"})
	require.ErrorIs(t, err, errInvalidPlayers)
}
