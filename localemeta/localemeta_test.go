package localemeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "ru", want: "RU"},
		{in: " de ", want: "DE"},
		{in: "zh-CN", want: "CN"},
		{in: "pt_BR", want: "BR"},
		{in: "ja", want: "JP"},
		{in: "DEFAULT", want: "DEFAULT"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := Canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("RU")
		if got.Name != "Русский" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("ko")
		if got.Name != "한국어" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("ZZ")
		if got.Name != "ZZ" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestKnown(t *testing.T) {
	if !Known("de") {
		t.Error("Known(de) = false")
	}
	if Known("xx") {
		t.Error("Known(xx) = true")
	}
}
