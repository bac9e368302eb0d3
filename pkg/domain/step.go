package domain

// Step はウィザードの段階です。
type Step string

const (
	StepBrand      Step = "brand"
	StepCampaign   Step = "campaign"
	StepGeneration Step = "generation"
	StepReview     Step = "review"
)

var stepOrder = map[Step]int{
	StepBrand:      0,
	StepCampaign:   1,
	StepGeneration: 2,
	StepReview:     3,
}

// Valid は既知の段階かどうかを返します。
func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

// Before は s が other より前の段階なら true を返します。
func (s Step) Before(other Step) bool {
	return stepOrder[s] < stepOrder[other]
}
