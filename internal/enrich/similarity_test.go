package enrich

import "testing"

func TestAreSimilarContainment(t *testing.T) {
	a := "El Gobierno aprueba la reforma fiscal"
	b := "El Gobierno aprueba la reforma fiscal tras meses de negociación"

	if !AreSimilar(a, b) {
		t.Error("contained title should match")
	}
	if !AreSimilar(b, a) {
		t.Error("containment must be symmetric")
	}
}

func TestAreSimilarDiacriticsAndPunctuation(t *testing.T) {
	if !AreSimilar("¿Crisis económica en España?", "crisis economica en espana") {
		t.Error("diacritics and punctuation should not prevent a match")
	}
}

func TestAreSimilarWordOverlap(t *testing.T) {
	a := "subida histórica del precio de la luz en el mercado mayorista español"
	b := "histórica subida del precio de la luz en el mercado mayorista español"
	if !AreSimilar(a, b) {
		t.Error("reordered words with near-total overlap should match")
	}
}

func TestAreSimilarDistinctTitles(t *testing.T) {
	a := "El Gobierno aprueba la reforma fiscal para 2026"
	b := "Un terremoto sacude el sur de Italia esta madrugada"
	if AreSimilar(a, b) {
		t.Error("unrelated titles must not match")
	}
}

func TestAreSimilarEmpty(t *testing.T) {
	if AreSimilar("", "algo") || AreSimilar("algo", "") || AreSimilar("", "") {
		t.Error("empty titles never match")
	}
}
