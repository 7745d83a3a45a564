package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrganizationName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "whitespace only", input: "   \t ", expected: ""},
		{name: "trim and lowercase", input: "  Acme Widgets  ", expected: "acme widgets"},
		{name: "inc with period", input: "ACME Inc.", expected: "acme"},
		{name: "inc without period", input: "ACME Inc", expected: "acme"},
		{name: "llc", input: "Blue Sky LLC", expected: "blue sky"},
		{name: "punctuated llc", input: "Blue Sky, L.L.C.", expected: "blue sky"},
		{name: "pllc", input: "Smith & Jones PLLC", expected: "smith and jones"},
		{name: "company", input: "The Widget Company", expected: "the widget"},
		{name: "co suffix", input: "Widget Co.", expected: "widget"},
		{name: "suffix not stripped inside word", input: "Coincident Corp", expected: "coincident"},
		{name: "ltd", input: "Harbor Ltd.", expected: "harbor"},
		{name: "state abbreviation", input: "NY Housing Council", expected: "new york housing council"},
		{name: "standalone ca", input: "Ca Water Board", expected: "california water board"},
		{name: "ca inside word", input: "Scale Partners", expected: "scale partners"},
		{name: "nys variant", input: "NYS Dept. of Health", expected: "new york state department of health"},
		{name: "nyc variant", input: "NYC Parks", expected: "new york city parks"},
		{name: "org abbreviations", input: "Intl Assoc of Univ Ctr Govt Div", expected: "international association of university center government division"},
		{name: "state senate collapse", input: "NY State Senate", expected: "new york senate"},
		{name: "nys senate collapse", input: "NYS Senate", expected: "new york senate"},
		{name: "state assembly collapse", input: "CA State Assembly", expected: "california assembly"},
		{name: "ampersand", input: "AT&T", expected: "at and t"},
		{name: "punctuation and whitespace", input: "Friends  of (the) Park!  #1", expected: "friends of the park 1"},
		{name: "hyphen removed", input: "Smith-Jones", expected: "smithjones"},
		{name: "state after accented letter", input: "Montréal Museum", expected: "montréal museum"},
		{name: "state inside accented word", input: "Béla Foundation", expected: "béla foundation"},
		{name: "suffix before accented letter", input: "Coöperative Bank", expected: "coöperative bank"},
		{name: "abbreviation inside accented word", input: "Ñdept Ctr", expected: "ñdept center"},
		{name: "state next to digits", input: "Route 9ny Fund", expected: "route 9ny fund"},
		{name: "adjacent abbreviations", input: "NY CA Alliance", expected: "new york california alliance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, OrganizationName(tt.input))
		})
	}
}

func TestOrganizationNameDeterministic(t *testing.T) {
	input := "  The NYC Dept. of Ed, Inc.  "
	original := input

	first := OrganizationName(input)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, OrganizationName(input))
	}
	assert.Equal(t, original, input)
}

func TestOrganizationNameEquivalentVariants(t *testing.T) {
	variants := []string{"ACME Inc.", "acme", "Acme, Inc", "ACME LLC", " acme corp. "}
	for _, v := range variants {
		assert.Equal(t, "acme", OrganizationName(v), v)
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"ACME, Inc.", "acme inc"},
		{"  Smith &  Jones ", "smith jones"},
		{"Café Órbita", "caf rbita"},
		{"Line\nBreak", "line break"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fold(tt.input))
		})
	}
}
