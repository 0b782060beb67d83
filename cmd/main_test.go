package main

import (
	"testing"

	"github.com/linkup-app/linkup-server/cmd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDropTablesIncludesConnectionJoinTable(t *testing.T) {
	tables := defaultDropTables()

	joinIdx, userIdx := -1, -1
	for i, table := range tables {
		switch table.(type) {
		case string:
			if table == "user_connections" {
				joinIdx = i
			}
		case *models.User:
			userIdx = i
		}
	}

	require.NotEqual(t, -1, joinIdx, "user_connections must be in the drop set")
	require.NotEqual(t, -1, userIdx)
	assert.Less(t, joinIdx, userIdx, "join table rows reference users, drop them first")
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "user_connections", tableName("user_connections"))
	assert.Equal(t, "*models.User", tableName(&models.User{}))
}
