package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicyMembership(t *testing.T) {
	p := NewPolicy([]string{"owner@bakehouse.example", " Helper@bakehouse.example "})

	require.True(t, p.Allow("owner@bakehouse.example"))
	require.True(t, p.Allow("helper@bakehouse.example"))
	require.True(t, p.Allow("OWNER@bakehouse.example"), "membership is case-insensitive")
	require.False(t, p.Allow("stranger@example.com"))
	require.Equal(t, 2, p.Size())
}

func TestPolicyEmptyListDeniesEveryone(t *testing.T) {
	p := NewPolicy(nil)

	require.False(t, p.Allow("owner@bakehouse.example"))
	require.False(t, p.Allow(""))
}

func TestPolicyRejectsEmptyPrincipal(t *testing.T) {
	p := NewPolicy([]string{"owner@bakehouse.example", "  "})

	require.False(t, p.Allow(""))
	require.False(t, p.Allow("   "))
	require.Equal(t, 1, p.Size())
}
