package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchPredicate(t *testing.T) {
	t.Run("matches every field per keyword", func(t *testing.T) {
		predicate, args := searchPredicate([]string{"headphones"})

		assert.Equal(t, []any{"%headphones%"}, args)
		for _, field := range []string{"p.name", "p.brand", "p.category", "p.description"} {
			assert.Contains(t, predicate, field+" ILIKE $1")
		}
	})

	t.Run("keywords combine with OR", func(t *testing.T) {
		predicate, args := searchPredicate([]string{"wireless", "headphones"})

		assert.Equal(t, []any{"%wireless%", "%headphones%"}, args)
		clauses := strings.Split(predicate, ") OR (")
		assert.Len(t, clauses, 2)
		assert.Contains(t, clauses[0], "$1")
		assert.Contains(t, clauses[1], "$2")
		assert.NotContains(t, predicate, "AND")
	})

	t.Run("escapes pattern metacharacters", func(t *testing.T) {
		_, args := searchPredicate([]string{"100%", "wh_1000", `back\slash`})

		assert.Equal(t, []any{`%100\%%`, `%wh\_1000%`, `%back\\slash%`}, args)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `wh\_1000xm5`, escapeLike("wh_1000xm5"))
	assert.Equal(t, `a\\b`, escapeLike(`a\b`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
