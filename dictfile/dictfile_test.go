package dictfile

import (
	"strings"
	"testing"

	"github.com/dcs-tools/mizkit/luatable"
)

const sampleDict = `dictionary =
{
	-- briefing
	["DictKey_sortie_5"] = "Sample Training Mission",
	["DictKey_descriptionText_1"] = "Fly the route and report.",

	["DictKey_ActionText_10"] = "Welcome to the training mission",
	["DictKey_ActionRadioText_11"] = "Overlord, Eagle Flight checking in",
} -- end of dictionary
`

func TestParse_Basic(t *testing.T) {
	f := Parse(sampleDict)
	if f.Len() != 4 {
		t.Fatalf("len = %d, want 4", f.Len())
	}
	if got, _ := f.Get("DictKey_sortie_5"); got != "Sample Training Mission" {
		t.Errorf("sortie = %q", got)
	}
	keys := f.Keys()
	if keys[0] != "DictKey_sortie_5" {
		t.Errorf("keys[0] = %q, want document order", keys[0])
	}
}

func TestParse_MalformedKeepsRaw(t *testing.T) {
	f := Parse("not a dictionary at all")
	if f.Len() != 0 {
		t.Errorf("len = %d, want 0", f.Len())
	}
	if f.Raw() != "not a dictionary at all" {
		t.Errorf("raw lost: %q", f.Raw())
	}
}

func TestSet_UnknownKeyRejected(t *testing.T) {
	f := Parse(sampleDict)
	if f.Set("DictKey_invented_99", "x") {
		t.Error("Set invented a key")
	}
}

func TestMarshal_SurgicalSubstitution(t *testing.T) {
	f := Parse(sampleDict)
	if !f.Set("DictKey_ActionText_10", "Willkommen zur Trainingsmission") {
		t.Fatal("Set failed")
	}
	out := string(f.Marshal())

	if !strings.Contains(out, `["DictKey_ActionText_10"] = "Willkommen zur Trainingsmission"`) {
		t.Errorf("substitution missing:\n%s", out)
	}
	// Everything outside the substituted span is byte-identical.
	wantPrefix := sampleDict[:strings.Index(sampleDict, "Welcome")]
	if !strings.HasPrefix(out, wantPrefix) {
		t.Error("text before the substituted value changed")
	}
	wantSuffix := sampleDict[strings.Index(sampleDict, "Welcome")+len("Welcome to the training mission"):]
	if !strings.HasSuffix(out, wantSuffix) {
		t.Error("text after the substituted value changed")
	}
	if !strings.Contains(out, "-- briefing") {
		t.Error("comment lost")
	}

	// All other entries still parse to their original values.
	re := Parse(out)
	for _, key := range f.Keys() {
		if key == "DictKey_ActionText_10" {
			continue
		}
		orig, _ := f.Get(key)
		got, _ := re.Get(key)
		if got != orig {
			t.Errorf("%s changed: %q -> %q", key, orig, got)
		}
	}
}

func TestMarshal_NoChangesIsIdentity(t *testing.T) {
	f := Parse(sampleDict)
	if string(f.Marshal()) != sampleDict {
		t.Error("Marshal without Set is not byte-identical")
	}
}

func TestSubstitute_EscapesValue(t *testing.T) {
	raw := `dictionary = {["DictKey_a_1"] = "old"}`
	out, n := Substitute(raw, map[string]string{"DictKey_a_1": "line1\nline2 \"quoted\" back\\slash"})
	if n != 1 {
		t.Fatalf("replaced = %d, want 1", n)
	}
	want := `dictionary = {["DictKey_a_1"] = "line1\nline2 \"quoted\" back\\slash"}`
	if out != want {
		t.Errorf("out = %q\nwant %q", out, want)
	}
}

func TestSubstitute_EscapedValueBodyMatched(t *testing.T) {
	raw := `{["DictKey_a_1"] = "say \"hi\" now", ["DictKey_b_2"] = "keep"}`
	out, n := Substitute(raw, map[string]string{"DictKey_a_1": "new"})
	if n != 1 {
		t.Fatalf("replaced = %d, want 1", n)
	}
	if !strings.Contains(out, `["DictKey_a_1"] = "new"`) {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, `["DictKey_b_2"] = "keep"`) {
		t.Errorf("neighbour entry damaged: %q", out)
	}
}

func TestResolveKey_Indirect(t *testing.T) {
	dict := Dictionary{"DictKey_ActionText_10": "  Welcome aboard  "}
	key, text, ok := ResolveKey(luatable.NewString("DictKey_ActionText_10"), dict)
	if !ok {
		t.Fatal("resolve failed")
	}
	if key != "DictKey_ActionText_10" {
		t.Errorf("key = %q", key)
	}
	if text != "Welcome aboard" {
		t.Errorf("text = %q", text)
	}
}

func TestResolveKey_MissingYieldsNoText(t *testing.T) {
	key, text, ok := ResolveKey(luatable.NewString("DictKey_gone_1"), Dictionary{})
	if ok {
		t.Errorf("ok = true for missing key, text %q", text)
	}
	if key != "DictKey_gone_1" {
		t.Errorf("key = %q", key)
	}
}

func TestResolveKey_Literal(t *testing.T) {
	key, text, ok := ResolveKey(luatable.NewString("Plain literal text"), nil)
	if !ok || key != "" || text != "Plain literal text" {
		t.Errorf("got key=%q text=%q ok=%v", key, text, ok)
	}
}

func TestResolve_NonString(t *testing.T) {
	if _, ok := Resolve(luatable.NewNumber(4), nil); ok {
		t.Error("number resolved to text")
	}
	if _, ok := Resolve(nil, nil); ok {
		t.Error("nil resolved to text")
	}
}

func TestMerge_LocaleOverlaysDefault(t *testing.T) {
	dicts := map[string]*File{
		"DEFAULT": Parse(`{["DictKey_a_1"]="A default",["DictKey_b_2"]="B default"}`),
		"RU":      Parse(`{["DictKey_a_1"]="A russian"}`),
	}
	m := Merge(dicts, "RU")
	if m["DictKey_a_1"] != "A russian" {
		t.Errorf("a = %q, want locale value", m["DictKey_a_1"])
	}
	if m["DictKey_b_2"] != "B default" {
		t.Errorf("b = %q, want DEFAULT fallback", m["DictKey_b_2"])
	}
	if len(m) != 2 {
		t.Errorf("len = %d, want 2", len(m))
	}
}

func TestMerge_FirstAvailableFallback(t *testing.T) {
	dicts := map[string]*File{
		"DEFAULT": Parse(`{}`),
		"FR":      Parse(`{["DictKey_a_1"]="fr"}`),
	}
	m := Merge(dicts, "RU")
	if m["DictKey_a_1"] != "fr" {
		t.Errorf("fallback to first available locale failed: %v", m)
	}
}
