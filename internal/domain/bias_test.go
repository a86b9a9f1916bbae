package domain

import "testing"

func TestClassifyBias(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		prior  BiasLabel
		signal BiasLabel
		want   BiasLabel
	}{
		{"both unknown defaults to center", BiasUnknown, BiasUnknown, BiasCenter},
		{"unknown prior uses signal", BiasUnknown, BiasLeanRight, BiasLeanRight},
		{"unknown signal uses prior", BiasLeanLeft, BiasUnknown, BiasLeanLeft},
		{"exact agreement", BiasCenter, BiasCenter, BiasCenter},
		{"one step apart uses signal", BiasLeanRight, BiasCenter, BiasCenter},
		{"one step apart the other way", BiasLeanLeft, BiasLeft, BiasLeft},
		{"two steps apart moves one toward signal", BiasLeft, BiasCenter, BiasLeanLeft},
		{"three steps apart rounds toward prior", BiasRight, BiasLeanLeft, BiasLeanRight},
		{"maximal disagreement anchors to prior side", BiasLeft, BiasRight, BiasLeanLeft},
		{"maximal disagreement mirrored", BiasRight, BiasLeft, BiasLeanRight},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyBias(tc.prior, tc.signal); got != tc.want {
				t.Fatalf("ClassifyBias(%q, %q) = %q, want %q", tc.prior, tc.signal, got, tc.want)
			}
		})
	}
}

func TestClassifyBiasDeterministic(t *testing.T) {
	t.Parallel()

	labels := []BiasLabel{BiasUnknown, BiasLeft, BiasLeanLeft, BiasCenter, BiasLeanRight, BiasRight}
	for _, p := range labels {
		for _, s := range labels {
			first := ClassifyBias(p, s)
			if first == BiasUnknown {
				t.Fatalf("ClassifyBias(%q, %q) returned unknown", p, s)
			}
			for i := 0; i < 3; i++ {
				if got := ClassifyBias(p, s); got != first {
					t.Fatalf("ClassifyBias(%q, %q) not deterministic: %q then %q", p, s, first, got)
				}
			}
		}
	}
}

func TestParseBias(t *testing.T) {
	t.Parallel()

	if got := ParseBias("Lean Left"); got != BiasLeanLeft {
		t.Fatalf("unexpected label: %q", got)
	}
	if got := ParseBias("N/A"); got != BiasUnknown {
		t.Fatalf("expected unknown for unrecognized text, got %q", got)
	}
}

func TestDetailedSummaryNormalize(t *testing.T) {
	t.Parallel()

	d := DetailedSummary{WhatHappened: "something"}.Normalize()
	if d.WhatHappened != "something" {
		t.Fatalf("present section overwritten: %q", d.WhatHappened)
	}
	if d.Impact != SectionPlaceholder || d.Conclusion != SectionPlaceholder {
		t.Fatalf("missing sections not defaulted: %+v", d)
	}
}
