package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smflabs/sqlglue/internal/storage/memory"
	"github.com/smflabs/sqlglue/internal/value"
)

const fixture = `
[[tables]]
name = "users"

  [[tables.columns]]
  name = "id"
  type = "int64"
  primary_key = true

  [[tables.columns]]
  name = "name"
  type = "text"
  nullable = true

  [[tables.rows]]
  id = 1
  name = "ada"

  [[tables.rows]]
  id = 2
  name = "grace"
`

func TestLoadCreatesTableAndRows(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, Load(ctx, store, store, strings.NewReader(fixture)))

	sc, err := store.Schema(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, sc.PrimaryKey)

	it, err := store.Scan(ctx, "users")
	require.NoError(t, err)
	defer it.Close()

	var names []string
	for {
		row, _, err := it.Next(ctx)
		if err != nil {
			break
		}
		names = append(names, string(row.Values[1].(value.Str)))
	}
	assert.ElementsMatch(t, []string{"ada", "grace"}, names)
}

func TestLoadUnknownColumnErrors(t *testing.T) {
	const bad = `
[[tables]]
name = "users"

  [[tables.columns]]
  name = "id"
  type = "int64"

  [[tables.rows]]
  nope = 1
`
	ctx := context.Background()
	store := memory.New()
	err := Load(ctx, store, store, strings.NewReader(bad))
	require.Error(t, err)
}
