package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatVectorProducesBracketedCSV(t *testing.T) {
	assert.Equal(t, "[1,0.5,-2]", formatVector([]float64{1, 0.5, -2}))
}

func TestFormatVectorEmpty(t *testing.T) {
	assert.Equal(t, "[]", formatVector(nil))
}

func TestFilterToSQLEmptyFilterProducesNoWhere(t *testing.T) {
	where, args := filterToSQL(nil)
	assert.Equal(t, "", where)
	assert.Nil(t, args)
}

func TestFilterToSQLScalarProducesEqualityPredicate(t *testing.T) {
	where, args := filterToSQL(Filter{"domain": "example.com"})
	assert.Contains(t, where, "metadata ->> 'domain' = $1")
	assert.Equal(t, []any{"example.com"}, args)
}

func TestFilterToSQLListProducesContainmentPredicate(t *testing.T) {
	where, args := filterToSQL(Filter{"tags": []string{"go", "ai"}})
	assert.Contains(t, where, "metadata -> 'tags' ?| $1")
	require := args[0].([]string)
	assert.ElementsMatch(t, []string{"go", "ai"}, require)
}

func TestFloat32To64Converts(t *testing.T) {
	out := float32To64([]float32{1.5, 2.5})
	assert.Equal(t, []float64{1.5, 2.5}, out)
}
