package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "Correct-Horse-9", true},
		{"unicode symbol counts", "Contraseña€2024x", true},
		{"too short", "Ab1!", false},
		{"too long", "Aa1!" + strings.Repeat("x", 130), false},
		{"no upper", "correct-horse-9", false},
		{"no lower", "CORRECT-HORSE-9", false},
		{"no digit", "Correct-Horse-x", false},
		{"no special", "CorrectHorse99", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	valid := []string{"ana", "maria_jose", "user-42"}
	invalid := []string{"ab", strings.Repeat("a", 31), "con espacio", "_ana", "ana-", "ñandú"}

	for _, u := range valid {
		assert.NoError(t, ValidateUsername(u), u)
	}
	for _, u := range invalid {
		assert.Error(t, ValidateUsername(u), u)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateEmail("ana@example.com"))
	assert.Error(t, ValidateEmail("ana@"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"))
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Programación en Go":      "programacion-en-go",
		"  Cine & Series!!  ":     "cine-series",
		"Año Nuevo 2026":          "ano-nuevo-2026",
		"---":                     "",
		strings.Repeat("ab ", 40): strings.TrimRight(strings.Repeat("ab-", 20), "-"),
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestValidateForoSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		slug string
		ok   bool
	}{
		{"programacion-en-go", true},
		{"abc", true},
		{"ab", false},
		{"Mayus", false},
		{"con_guion_bajo", false},
		{"-inicio", false},
		{"final-", false},
		{"admin", false},
		{"hilos", false},
	}
	for _, tc := range tests {
		t.Run(tc.slug, func(t *testing.T) {
			err := ValidateForoSlug(tc.slug)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
