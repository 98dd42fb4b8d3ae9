package series

// Status classifies a sample's quality code.
type Status uint8

func (s Status) String() string {
	switch s {
	case Good:
		return "good"
	case Uncertain:
		return "uncertain"
	case Bad:
		return "bad"
	default:
		return "?"
	}
}

const (
	Good Status = iota
	Uncertain
	Bad
	Unknown
)

const (
	// CodeGood is the raw historian code for a good-quality sample with no
	// further qualification.
	CodeGood = 0xC0
	// CodeUncertain is the raw code for an uncertain sample.
	CodeUncertain = 0x40
	// CodeBad is the raw code for a bad sample.
	CodeBad = 0x00

	qualityMask = 0xC0
)

// Quality pairs a sample's classification with the raw code reported by the
// data source, so that no information is lost when a source uses codes we do
// not otherwise interpret.
type Quality struct {
	Status Status
	Code   int
}

// QualityFromCode derives a Quality from an OPC-style quality code, where the
// top two bits of the low byte carry the classification.
func QualityFromCode(code int) Quality {
	if code < 0 {
		return Quality{Status: Unknown, Code: code}
	}
	var status Status
	switch code & qualityMask {
	case CodeGood:
		status = Good
	case CodeUncertain:
		status = Uncertain
	case CodeBad:
		status = Bad
	default:
		status = Unknown
	}
	return Quality{Status: status, Code: code}
}

// GoodQuality is the quality assumed for samples whose source reports none.
var GoodQuality = Quality{Status: Good, Code: CodeGood}

func (q Quality) String() string {
	return q.Status.String()
}
