package portspec

import (
	"reflect"
	"testing"

	"github.com/svcscan/svcscan/internal/model"
)

func ports(ns ...int) []model.Port {
	out := make([]model.Port, len(ns))
	for i, n := range ns {
		out[i] = model.Port(n)
	}
	return out
}

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		spec    string
		want    []model.Port
		wantErr bool
	}{
		{
			name: "S1 roundtrip with duplicate and range",
			spec: "22,80,1000-1002,80",
			want: ports(22, 80, 1000, 1001, 1002),
		},
		{
			name: "single port",
			spec: "443",
			want: ports(443),
		},
		{
			name: "equal range endpoints collapse to one port",
			spec: "80-80",
			want: ports(80),
		},
		{
			name: "zero as single token rejected",
			spec: "0",
			wantErr: true,
		},
		{
			name: "zero inside range silently skipped",
			spec: "0-2",
			want: ports(1, 2),
		},
		{
			name:    "empty spec rejected",
			spec:    "",
			wantErr: true,
		},
		{
			name:    "dangling range endpoint rejected",
			spec:    "80-",
			wantErr: true,
		},
		{
			name:    "inverted range rejected",
			spec:    "100-50",
			wantErr: true,
		},
		{
			name:    "out of range value rejected",
			spec:    "70000",
			wantErr: true,
		},
		{
			name:    "non-numeric token rejected",
			spec:    "abc",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.spec)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q): expected error, got %v", tc.spec, got)
				}
				if _, ok := err.(*model.InvalidPortsError); !ok {
					t.Fatalf("Parse(%q): expected *model.InvalidPortsError, got %T", tc.spec, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %v", tc.spec, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Parse(%q) = %v, want %v", tc.spec, got, tc.want)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	const spec = "5,3,5,1-3,9"
	first, err := Parse(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Parse(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Parse not idempotent: %v != %v", first, second)
	}
}
