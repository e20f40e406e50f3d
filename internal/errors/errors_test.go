package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "definition error",
			code:    "E001",
			wantMsg: "Duplicate element type",
			wantCat: CategoryDefinition,
		},
		{
			name:    "structural error",
			code:    "E101",
			wantMsg: "Unknown element type",
			wantCat: CategoryStructural,
		},
		{
			name:    "invariant error",
			code:    "E201",
			wantMsg: "Root element vanished",
			wantCat: CategoryInvariant,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryConfig, "file %q not found", "retain.yaml")
	if err.Message != `file "retain.yaml" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
}

func TestError_Error(t *testing.T) {
	err := New("E101").WithDetail(`type "x"`)
	want := `E101: Unknown element type: type "x"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestError_IsByCode(t *testing.T) {
	err := fmt.Errorf("painting: %w", New("E301").Wrap(stderrors.New("boom")))

	if !stderrors.Is(err, New("E301")) {
		t.Error("errors.Is should match by code through wrapping")
	}
	if stderrors.Is(err, New("E101")) {
		t.Error("errors.Is should not match a different code")
	}
	if CodeOf(err) != "E301" {
		t.Errorf("CodeOf = %q, want E301", CodeOf(err))
	}
}

func TestError_Wrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := New("E403").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, missing cause", err.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E301") != nil {
		t.Error("FromError(nil) should be nil")
	}

	coded := New("E102")
	if got := FromError(fmt.Errorf("ctx: %w", coded), "E301"); got != coded {
		t.Error("FromError should return the existing coded error")
	}

	plain := stderrors.New("plain")
	got := FromError(plain, "E301")
	if got.Code != "E301" || got.Wrapped != plain {
		t.Errorf("FromError = %+v", got)
	}
}

func TestFprint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "registered detail",
			err:  New("E101").WithSuggestion("Register the type before creating the root"),
			want: []string{"Error E101 [structural]: Unknown element type", "The subtree was pruned", "hint: Register"},
		},
		{
			name: "wrapped by caller",
			err:  fmt.Errorf("load config: %w", New("E402").Wrap(stderrors.New("eof"))),
			want: []string{"Error E402 [persistence]: Snapshot decoding failed (in load config)", "cause: eof"},
		},
		{
			name: "plain error",
			err:  stderrors.New("boom"),
			want: []string{"Error: boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Fprint(&buf, tt.err, false)
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Fprint() missing %q:\n%s", want, out)
				}
			}
			if strings.Contains(out, "\033[") {
				t.Errorf("Fprint() without color emitted escapes: %q", out)
			}
		})
	}
}

func TestFprintColor(t *testing.T) {
	var buf bytes.Buffer
	Fprint(&buf, New("E105").WithDetail("name is empty"), true)
	if !strings.Contains(buf.String(), ansiRed) {
		t.Errorf("Fprint() with color = %q", buf.String())
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	for _, l := range lines {
		if len(l) > 9 {
			t.Errorf("line %q longer than width", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
}
