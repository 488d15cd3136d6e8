package dhl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tournevent/dhlbridge/pkg/dhl"
)

func TestCleanText_FoldsAccents(t *testing.T) {
	cases := map[string]string{
		"Bogotá":          "Bogota",
		"Medellín":        "Medellin",
		"São Paulo":       "Sao Paulo",
		"Ciudad de Panamá": "Ciudad de Panama",
		"MÜNCHEN":         "MUNCHEN",
		"  Quito  ":       "Quito",
		"niño & señora":   "nino & senora",
	}
	for in, want := range cases {
		assert.Equal(t, want, dhl.CleanText(in))
	}
}

func TestCleanText_Idempotent(t *testing.T) {
	inputs := []string{
		"Bogotá",
		"José Domínguez",
		"plain ascii",
		"a<b>&\"c\"",
		"",
		"Ñandú ûber àèìòù",
	}
	for _, in := range inputs {
		once := dhl.CleanText(in)
		assert.Equal(t, once, dhl.CleanText(once), "CleanText not idempotent for %q", in)
	}
}

func TestCleanPhone(t *testing.T) {
	assert.Equal(t, "+507 6000-1234", dhl.CleanPhone("+507 6000-1234"))
	assert.Equal(t, "(305) 555-0100", dhl.CleanPhone("(305) 555-0100ext"))
	assert.Equal(t, "6000 1234", dhl.CleanPhone("tel:6000 1234"))

	long := dhl.CleanPhone("+1234567890123456789")
	assert.LessOrEqual(t, len(long), 15)
}
