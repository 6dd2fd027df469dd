package keyword

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/seopress/internal/apperr"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Wireless Earbuds":        "wireless earbuds",
		"  gaming   MOUSE \t":     "gaming mouse",
		"coffee maker":            "coffee maker",
		"\nAir Fryer\nRecipes\n":  "air fryer recipes",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		if _, err := Normalize(in); !errors.Is(err, apperr.ErrInvalidKeyword) {
			t.Errorf("Normalize(%q) err = %v, want ErrInvalidKeyword", in, err)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"wireless earbuds":    "wireless-earbuds",
		"smartphone 2024":     "smartphone-2024",
		"café crème":          "cafe-creme",
		"usb-c / lightning":   "usb-c-lightning",
		"  leading trailing ": "leading-trailing",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlug_NoASCII(t *testing.T) {
	got := Slug("日本語")
	if !strings.HasPrefix(got, "kw-") {
		t.Fatalf("Slug = %q, want kw- prefix", got)
	}
	if Slug("日本語") != got {
		t.Error("hash slug is not stable")
	}
	if Slug("中文") == got {
		t.Error("different keywords share a hash slug")
	}
}

func TestKey_DistinctForSameSlug(t *testing.T) {
	long := strings.Repeat("a", 80)
	pairs := [][2]string{
		{"café", "cafe"},
		{"c++ tips", "c tips"},
		{"wireless earbuds", "wireless-earbuds"},
		{long + " one", long + " two"},
	}
	for _, p := range pairs {
		if Slug(p[0]) != Slug(p[1]) {
			t.Fatalf("Slug(%q) != Slug(%q), pair is not a slug collision", p[0], p[1])
		}
		if Key(p[0]) == Key(p[1]) {
			t.Errorf("Key(%q) == Key(%q) = %q", p[0], p[1], Key(p[0]))
		}
	}
}

func TestKey_Format(t *testing.T) {
	got := Key("wireless earbuds")
	if !strings.HasPrefix(got, "wireless-earbuds-") || len(got) != len("wireless-earbuds-")+8 {
		t.Fatalf("Key = %q, want slug plus 8 hex digits", got)
	}
	if Key("wireless earbuds") != got {
		t.Error("Key is not stable")
	}
}

func TestTitle(t *testing.T) {
	if got := Title("wireless earbuds"); got != "Wireless Earbuds" {
		t.Errorf("Title = %q", got)
	}
}
