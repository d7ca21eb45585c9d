package engine

import (
	"testing"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(points-polygons [3] [0 1 2] :name "floor")`,
			expect: `(points_polygons [3] [0 1 2] "__kw_name" "floor")`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" b-c" :x`,
			expect: `"a \" b-c" "__kw_x"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(transform-begin)`,
			expect: `(transform_begin)`,
		},
		{
			name:   "hyphenated string untouched",
			input:  `(subdivision-mesh "catmull-clark")`,
			expect: `(subdivision_mesh "catmull-clark")`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "negative number preserved",
			input:  `(translate -1 0 -2.5)`,
			expect: `(translate -1 0 -2.5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "RIB comment",
			input:  "# header\n(identity)",
			expect: "// header\n(identity)",
		},
		{
			name:   "hyphen in keyword preserved",
			input:  `:head-dia`,
			expect: `"__kw_head-dia"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func TestParseArgs(t *testing.T) {
	args := []zygo.Sexp{
		&zygo.SexpInt{Val: 1},
		&zygo.SexpStr{S: kwPrefix + "name"},
		&zygo.SexpStr{S: "box"},
		&zygo.SexpStr{S: "P"},
		&zygo.SexpStr{S: kwPrefix + "dangling"},
	}
	pa := parseArgs(args)

	if len(pa.positional) != 2 {
		t.Fatalf("positional = %d, want 2", len(pa.positional))
	}
	name, err := toString(pa.kw["name"])
	if err != nil || name != "box" {
		t.Errorf("kw[name] = %q, %v, want box", name, err)
	}
	if pa.kw["dangling"] != zygo.SexpNull {
		t.Errorf("kw[dangling] = %v, want null", pa.kw["dangling"])
	}
}

func TestToFloats(t *testing.T) {
	arr := &zygo.SexpArray{Val: []zygo.Sexp{&zygo.SexpInt{Val: 2}, &zygo.SexpFloat{Val: 0.5}}}
	got, err := toFloats(arr)
	if err != nil {
		t.Fatalf("toFloats() error = %v", err)
	}
	if len(got) != 2 || got[0] != 2 || got[1] != 0.5 {
		t.Errorf("toFloats() = %v, want [2 0.5]", got)
	}

	// A scalar is a one-element list.
	got, err = toFloats(&zygo.SexpFloat{Val: 3})
	if err != nil || len(got) != 1 || got[0] != 3 {
		t.Errorf("toFloats(scalar) = %v, %v, want [3]", got, err)
	}

	if _, err := toInts(arr); err == nil {
		t.Error("toInts() with a float element should fail")
	}
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		name    string
		items   []zygo.Sexp
		want    string
		wantErr bool
	}{
		{"empty", nil, "float", false},
		{"ints", []zygo.Sexp{&zygo.SexpInt{Val: 1}}, "int", false},
		{"mixed numbers", []zygo.Sexp{&zygo.SexpInt{Val: 1}, &zygo.SexpFloat{Val: 1}}, "float", false},
		{"strings", []zygo.Sexp{&zygo.SexpStr{S: "a"}}, "string", false},
		{"strings and numbers", []zygo.Sexp{&zygo.SexpStr{S: "a"}, &zygo.SexpInt{Val: 1}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := inferKind(tt.items)
			if (err != nil) != tt.wantErr {
				t.Fatalf("inferKind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.String() != tt.want {
				t.Errorf("inferKind() = %s, want %s", got, tt.want)
			}
		})
	}
}
