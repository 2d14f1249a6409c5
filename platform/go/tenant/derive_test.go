package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestSchemaNameFor(t *testing.T) {
	require.Equal(t, "acme", SchemaNameFor(" Acme "))
	require.Equal(t, "north_campus", SchemaNameFor("north_campus"))
}

func TestShortID(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000000")
	require.Equal(t, "a1b2c3d4", ShortID(id))
}

func TestPrimaryHostname(t *testing.T) {
	require.Equal(t, "acme.edusekai.io", PrimaryHostname("acme", "edusekai.io"))
	require.Equal(t, "acme.edusekai.io", PrimaryHostname("Acme", ".edusekai.io"))
}

func TestSpaceIsShared(t *testing.T) {
	require.True(t, Space{}.IsShared())
	require.True(t, Space{SchemaName: SharedSchema}.IsShared())
	require.False(t, Space{SchemaName: "acme"}.IsShared())
}

func TestSpaceRoundTripsThroughContext(t *testing.T) {
	space := Space{TenantID: uuid.New(), Name: "Acme High", PartitionKey: "acme", SchemaName: "acme"}

	ctx := WithSpace(context.Background(), space)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, space, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}
