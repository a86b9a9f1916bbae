package domain

// BiasLabel is a five-point ordinal political-lean scale. The zero value
// means the label is unknown.
type BiasLabel string

const (
	BiasUnknown   BiasLabel = ""
	BiasLeft      BiasLabel = "Left"
	BiasLeanLeft  BiasLabel = "Lean Left"
	BiasCenter    BiasLabel = "Center"
	BiasLeanRight BiasLabel = "Lean Right"
	BiasRight     BiasLabel = "Right"
)

var biasScore = map[BiasLabel]int{
	BiasLeft:      -2,
	BiasLeanLeft:  -1,
	BiasCenter:    0,
	BiasLeanRight: 1,
	BiasRight:     2,
}

var biasByScore = map[int]BiasLabel{
	-2: BiasLeft,
	-1: BiasLeanLeft,
	0:  BiasCenter,
	1:  BiasLeanRight,
	2:  BiasRight,
}

// ParseBias maps free-form label text to a BiasLabel; anything unrecognized
// is BiasUnknown.
func ParseBias(s string) BiasLabel {
	switch BiasLabel(s) {
	case BiasLeft, BiasLeanLeft, BiasCenter, BiasLeanRight, BiasRight:
		return BiasLabel(s)
	}
	return BiasUnknown
}

// ClassifyBias combines the configured outlet prior with the content-derived
// signal into the final label. When the two are within one step of each other
// the content evidence wins; on a wider disagreement the content signal is
// treated as likely noise and the result moves a single step from the prior
// toward it. Deterministic and defined for every input pair.
func ClassifyBias(prior, signal BiasLabel) BiasLabel {
	p, priorKnown := biasScore[prior]
	s, signalKnown := biasScore[signal]

	switch {
	case !priorKnown && !signalKnown:
		return BiasCenter
	case !priorKnown:
		return signal
	case !signalKnown:
		return prior
	}

	d := s - p
	if d >= -1 && d <= 1 {
		return signal
	}
	if d > 0 {
		return biasByScore[p+1]
	}
	return biasByScore[p-1]
}
