package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullName_Valid(t *testing.T) {
	cases := map[string]string{
		"Иванов Иван Иванович":           "Иванов Иван Иванович",
		"иванов иван иванович":           "Иванов Иван Иванович",
		"иванов-петров иван иванович":    "Иванов-Петров Иван Иванович",
		"  петров   сидор   иванович  ":  "Петров Сидор Иванович",
		"ЁЛКИНА анна-мария владимировна": "Ёлкина Анна-Мария Владимировна",
	}
	for raw, want := range cases {
		got, ok := ParseFullName(raw)
		require.True(t, ok, "raw=%q", raw)
		assert.Equal(t, want, got)
	}
}

func TestParseFullName_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"Иванов Иван",                  // two tokens
		"Иванов Иван Иванович Лишний",  // four tokens
		"Ivanov Ivan Ivanovich",        // latin
		"Иванов Иван2 Иванович",        // digit
		"Иванов Иван Иванович!",        // punctuation
	} {
		_, ok := ParseFullName(raw)
		assert.False(t, ok, "raw=%q", raw)
	}
}
