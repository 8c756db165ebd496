package extract

import "testing"

func TestTextFromContentStream(t *testing.T) {
	stream := []byte(`BT
/F1-Bold 12 Tf
72 712 Td
(Incident Title: Data \(PII\) exposure) Tj
T*
[(Sev) -20 (erity: High)] TJ
0 -14 Td
<4F70656E> Tj
ET
% comment (ignored) Tj
BT (Next block) ' ET`)

	got := textFromContentStream(stream)
	want := "Incident Title: Data (PII) exposure\nSeverity: High Open\nNext block"
	if got != want {
		t.Fatalf("unexpected text:\n%q\nwant:\n%q", got, want)
	}
}

func TestReadLiteralOctalEscape(t *testing.T) {
	s, next := readLiteral([]byte(`(A\040B) Tj`), 0)
	if s != "A B" {
		t.Fatalf("unexpected literal %q", s)
	}
	if next != 8 {
		t.Fatalf("unexpected next offset %d", next)
	}
}
