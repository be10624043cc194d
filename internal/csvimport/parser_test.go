package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := "\uFEFFfirstname, lastName,email,provider,birth_date\n" +
		"John,Doe,john@example.com,google,1990-05-01\n" +
		"\n" +
		"Jane,Roe,jane@example.com\n"

	rows, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{
		"firstname":  "John",
		"lastName":   "Doe",
		"email":      "john@example.com",
		"provider":   "google",
		"birth_date": "1990-05-01",
	}, rows[0])

	assert.Equal(t, "Jane", rows[1]["firstname"])
	_, ok := rows[1]["provider"]
	assert.False(t, ok, "short record must not invent columns")
}

func TestParseIgnoresExtraColumns(t *testing.T) {
	rows, err := Parse(strings.NewReader("email\na@example.com,extra\n"))
	require.NoError(t, err)
	assert.Equal(t, []Row{{"email": "a@example.com"}}, rows)
}

func TestParseHeaderOnly(t *testing.T) {
	rows, err := Parse(strings.NewReader("email,phone\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseMalformedQuote(t *testing.T) {
	_, err := Parse(strings.NewReader("email\n\"unterminated\n"))
	assert.Error(t, err)
}

func TestParseSkipsUnnamedColumns(t *testing.T) {
	rows, err := Parse(strings.NewReader("firstname,,email, ,birth_date\nJohn,x,j@example.com,y,1990-05-01\n"))
	require.NoError(t, err)
	assert.Equal(t, []Row{{
		"firstname":  "John",
		"email":      "j@example.com",
		"birth_date": "1990-05-01",
	}}, rows)
}
