package convention

import (
	"github.com/go-openapi/inflect"

	"github.com/artpar/modelgate/core/schema"
)

// Pluralize returns the plural form of a word, keeping the case of its first letter.
func Pluralize(word string) string {
	if word == "" {
		return ""
	}
	return inflect.Pluralize(word)
}

// Singularize returns the singular form of a word.
func Singularize(word string) string {
	if word == "" {
		return ""
	}
	return inflect.Singularize(word)
}

// ForeignKey returns the conventional key column name pointing at model: lowerCamel(model)+"Id".
func ForeignKey(model string) string {
	return schema.LowerFirst(model) + "Id"
}

// JoinTable returns the default many-to-many table name for source and target models.
func JoinTable(source, target string) string {
	return schema.Key(source) + Pluralize(schema.Key(target))
}
