package filterexpr

import (
	"reflect"
	"strings"
	"testing"
)

type testParams struct {
	Language      string
	DifficultyMin int32
	DifficultyMax int32
	Sources       []string
}

func testSchema() Schema[testParams] {
	return Schema[testParams]{
		"language": {
			Kind: KindString,
			Ops:  Ops(OpEQ),
			Set: func(dst *testParams, _ Op, value any) error {
				dst.Language = value.(string)
				return nil
			},
		},
		"difficulty": {
			Kind: KindNumber,
			Ops:  Ops(OpGTE, OpLTE),
			Set: func(dst *testParams, op Op, value any) error {
				n, err := AsInt32(value)
				if err != nil {
					return err
				}
				if op == OpGTE {
					dst.DifficultyMin = n
				} else {
					dst.DifficultyMax = n
				}
				return nil
			},
		},
		"source": {
			Kind: KindString,
			Ops:  Ops(OpIN),
			Set: func(dst *testParams, _ Op, value any) error {
				dst.Sources = value.([]string)
				return nil
			},
		},
	}
}

func TestBindConjunction(t *testing.T) {
	var params testParams
	filter := `language == "ja" && difficulty >= 20 && difficulty <= 70 && source in ["a", "b"]`
	if err := Bind(filter, &params, testSchema()); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if params.Language != "ja" {
		t.Errorf("Language = %q, want ja", params.Language)
	}
	if params.DifficultyMin != 20 || params.DifficultyMax != 70 {
		t.Errorf("difficulty range = [%d, %d], want [20, 70]", params.DifficultyMin, params.DifficultyMax)
	}
	if len(params.Sources) != 2 || params.Sources[0] != "a" {
		t.Errorf("Sources = %v, want [a b]", params.Sources)
	}
}

func TestBindEmptyFilterIsNoop(t *testing.T) {
	var params testParams
	if err := Bind("   ", &params, testSchema()); err != nil {
		t.Fatalf("Bind returned error: %v", err)
	}
	if !reflect.DeepEqual(params, testParams{}) {
		t.Errorf("params mutated by empty filter: %+v", params)
	}
}

func TestBindRejections(t *testing.T) {
	cases := []struct {
		name    string
		filter  string
		wantErr string
	}{
		{"unknown field", `year == 2020`, "not allowed"},
		{"disallowed operator", `language >= "ja"`, "not allowed"},
		{"or rejected", `language == "ja" || difficulty >= 3`, "only AND"},
		{"wrong literal kind", `difficulty >= "high"`, "number"},
		{"fractional int", `difficulty >= 2.5`, "not an integer"},
		{"empty list", `source in []`, "must not be empty"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var params testParams
			err := Bind(tc.filter, &params, testSchema())
			if err == nil {
				t.Fatalf("Bind(%q) succeeded, want error containing %q", tc.filter, tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}
