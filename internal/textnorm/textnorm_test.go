package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("Trims, lowercases and collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "blauschwarze holzbiene", Normalize("  Blauschwarze\t Holzbiene \n"))
	})

	t.Run("Case and whitespace insensitive", func(t *testing.T) {
		assert.Equal(t, Normalize("fox"), Normalize("Fox  "))
		assert.Equal(t, Normalize("rote   liste"), Normalize("ROTE Liste"))
	})

	t.Run("Idempotent", func(t *testing.T) {
		inputs := []string{"", "  ", "Fuchs", "  Wie GROSS ist\tder Biber? ", "äöü ß"}
		for _, in := range inputs {
			once := Normalize(in)
			assert.Equal(t, once, Normalize(once), "normalize should be idempotent for %q", in)
		}
	})
}

func TestStripMarkup(t *testing.T) {
	t.Run("Replaces line breaks with newlines", func(t *testing.T) {
		assert.Equal(t, "Hallo!\nWie geht's?", StripMarkup("Hallo!<br>Wie geht's?"))
		assert.Equal(t, "a\nb", StripMarkup("a<br/>b"))
		assert.Equal(t, "a\nb", StripMarkup("a<BR />b"))
	})

	t.Run("Removes other tags", func(t *testing.T) {
		assert.Equal(t, "fett und kursiv", StripMarkup("<b>fett</b> und <i>kursiv</i>"))
	})

	t.Run("Trims surrounding whitespace", func(t *testing.T) {
		assert.Equal(t, "Hi", StripMarkup("  <span>Hi</span>  "))
	})

	t.Run("Plain text unchanged", func(t *testing.T) {
		assert.Equal(t, "keine Tags", StripMarkup("keine Tags"))
	})
}
