package routepath

import (
	"errors"
	"reflect"
	"testing"
)

func TestCanonicalizePath(t *testing.T) {
	tests := []struct {
		input       string
		wantPath    string
		wantQuery   string
		wantChanged bool
	}{
		{"/", "/", "", false},
		{"", "/", "", true},
		{"about", "/about", "", true},
		{"/blog//post", "/blog/post", "", true},
		{"/blog/./post", "/blog/post", "", true},
		{"/blog/posts/../other", "/blog/other", "", true},
		{"/blog/../", "/", "", true},
		{"/route/", "/route", "", true},
		{"/search?q=a%ZZ", "/search", "q=a%ZZ", false},
		{"/a//b?x=1", "/a/b", "x=1", true},
		{"/my%20file", "/my%20file", "", false},
	}

	for _, tt := range tests {
		got, err := CanonicalizePath(tt.input)
		if err != nil {
			t.Errorf("CanonicalizePath(%q) error: %v", tt.input, err)
			continue
		}
		if got.Path != tt.wantPath || got.Query != tt.wantQuery || got.Changed != tt.wantChanged {
			t.Errorf("CanonicalizePath(%q) = %+v, want {%s %s %v}", tt.input, got, tt.wantPath, tt.wantQuery, tt.wantChanged)
		}
	}
}

func TestCanonicalizePathErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantErr error
	}{
		{`/a\b`, ErrBackslashInPath},
		{"/a\x00b", ErrNullByteInPath},
		{"/a%00b", ErrNullByteInPath},
		{"/a%2", ErrInvalidPercentEscape},
		{"/a%GGb", ErrInvalidPercentEscape},
		{"/100%", ErrInvalidPercentEscape},
		{"/../secret", ErrPathEscapesRoot},
		{"/a/../../b", ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		_, err := CanonicalizePath(tt.input)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("CanonicalizePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestDecodePathSegments(t *testing.T) {
	tests := []struct {
		path    string
		want    []string
		wantErr bool
	}{
		{"/a/b", []string{"a", "b"}, false},
		{"/", nil, false},
		{"", nil, false},
		{"/my%20file/x", []string{"my file", "x"}, false},
		{"/a%2Fb/c", []string{"a/b", "c"}, false},
		{"/%ZZ", nil, true},
	}

	for _, tt := range tests {
		got, err := DecodePathSegments(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("DecodePathSegments(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("DecodePathSegments(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSegments(t *testing.T) {
	got, err := Segments("/blog//hello%20world/./")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"blog", "hello world"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Segments = %q, want %q", got, want)
	}

	if _, err := Segments("/../etc/passwd"); !errors.Is(err, ErrPathEscapesRoot) {
		t.Errorf("Segments escape error = %v", err)
	}
}

func TestSplitPathAndQuery(t *testing.T) {
	tests := []struct {
		input, path, query string
	}{
		{"/a", "/a", ""},
		{"/a?b=c", "/a", "b=c"},
		{"/a?b=c?d", "/a", "b=c?d"},
		{"?x", "", "x"},
	}
	for _, tt := range tests {
		p, q := SplitPathAndQuery(tt.input)
		if p != tt.path || q != tt.query {
			t.Errorf("SplitPathAndQuery(%q) = %q, %q", tt.input, p, q)
		}
	}
}
