package action

import "testing"

func TestSubstitute_ReplacesKnownKeys(t *testing.T) {
	ctx := map[string]any{"name": "world", "count": 3}

	out, err := substitute("hello ${name}, count=${count}", ctx)
	if err != nil {
		t.Fatalf("substitute failed: %v", err)
	}
	if out != "hello world, count=3" {
		t.Fatalf("unexpected substitution result: %q", out)
	}
}

func TestSubstitute_LeavesUnknownKeysUntouched(t *testing.T) {
	out, err := substitute("value is ${missing}", map[string]any{})
	if err != nil {
		t.Fatalf("substitute failed: %v", err)
	}
	if out != "value is ${missing}" {
		t.Fatalf("expected unknown key left as-is, got %q", out)
	}
}

func TestSubstitute_IsSinglePassNonRecursive(t *testing.T) {
	ctx := map[string]any{"a": "${b}", "b": "unreached"}

	out, err := substitute("${a}", ctx)
	if err != nil {
		t.Fatalf("substitute failed: %v", err)
	}
	if out != "${b}" {
		t.Fatalf("expected a single substitution pass leaving %q literal, got %q", "${b}", out)
	}
}

func TestSubstitute_RendersNonStringValuesCanonically(t *testing.T) {
	ctx := map[string]any{"list": []any{1, 2, 3}, "flag": true}

	out, err := substitute("${list} ${flag}", ctx)
	if err != nil {
		t.Fatalf("substitute failed: %v", err)
	}
	if out != "[1,2,3] true" {
		t.Fatalf("unexpected canonical rendering: %q", out)
	}
}

func TestValidateArgKey(t *testing.T) {
	cases := []struct {
		key     string
		wantErr bool
	}{
		{"foo", false},
		{"_foo", false},
		{"foo_bar2", false},
		{"2foo", true},
		{"foo-bar", true},
		{"", true},
	}

	for _, c := range cases {
		err := validateArgKey("Execute prompt \"x\"", c.key)
		if (err != nil) != c.wantErr {
			t.Errorf("validateArgKey(%q): err=%v, wantErr=%v", c.key, err, c.wantErr)
		}
	}
}
