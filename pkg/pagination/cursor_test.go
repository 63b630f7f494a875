package pagination

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	c := Cursor{
		V:   1,
		Did: "ds-123",
		T:   TableMonthlyAverage,
		Off: 200,
		Ps:  100,
		St:  "PARANA",
	}
	tok, err := EncodeCursor(c)
	if err != nil {
		t.Fatalf("EncodeCursor error: %v", err)
	}
	// token should be url-safe base64 (no '+', '/', '=')
	if strings.ContainsAny(tok, "+/=") {
		t.Fatalf("token contains non-url-safe chars: %q", tok)
	}
	out, err := DecodeCursor(tok)
	if err != nil {
		t.Fatalf("DecodeCursor error: %v", err)
	}
	if out.Did != c.Did || out.T != c.T || out.Off != c.Off || out.Ps != c.Ps || out.St != c.St {
		t.Fatalf("roundtrip mismatch: got %+v want %+v", out, c)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	cases := []string{
		"",    // empty
		"!!!", // not base64
		base64.RawURLEncoding.EncodeToString([]byte("not-json")),
		// missing required fields
		mustB64(`{"v":1}`),
		mustB64(`{"v":1,"did":"","t":"dispersion","off":0,"ps":10}`),
		mustB64(`{"v":1,"did":"x","t":"bad","off":0,"ps":10}`),
		mustB64(`{"v":1,"did":"x","t":"dispersion","off":-1,"ps":10}`),
		mustB64(`{"v":1,"did":"x","t":"dispersion","off":0,"ps":0}`),
	}
	for i, tok := range cases {
		if _, err := DecodeCursor(tok); err == nil {
			t.Fatalf("case %d: expected error for token %q", i, tok)
		}
	}
}

func TestWindow(t *testing.T) {
	cases := []struct {
		total, off, ps      int
		start, end, nextOff int
	}{
		{total: 10, off: 0, ps: 4, start: 0, end: 4, nextOff: 4},
		{total: 10, off: 8, ps: 4, start: 8, end: 10, nextOff: -1},
		{total: 10, off: 12, ps: 4, start: 10, end: 10, nextOff: -1},
		{total: 0, off: 0, ps: 4, start: 0, end: 0, nextOff: -1},
		{total: 5, off: -3, ps: 5, start: 0, end: 5, nextOff: -1},
	}
	for i, c := range cases {
		s, e, n := Window(c.total, c.off, c.ps)
		if s != c.start || e != c.end || n != c.nextOff {
			t.Fatalf("case %d: got (%d,%d,%d) want (%d,%d,%d)", i, s, e, n, c.start, c.end, c.nextOff)
		}
	}
}

func FuzzDecodeCursor(f *testing.F) {
	seeds := []string{
		"", "abc", mustB64(`{"v":1}`), mustB64(`{"did":"x"}`),
		mustB64(`{"v":1,"did":"ds","t":"monthly_average","off":0,"ps":1}`),
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, token string) {
		_, _ = DecodeCursor(token)
	})
}

func mustB64(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}
