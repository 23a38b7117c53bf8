package model

// AlgorithmSettings is implemented by the per-family validated settings
// records returned by the configuration loader.
type AlgorithmSettings interface {
	Family() Algorithm
}

// PrevalenceLevel is an InterVA prevalence setting: very low, low, or high.
type PrevalenceLevel string

const (
	PrevalenceVeryLow PrevalenceLevel = "v"
	PrevalenceLow     PrevalenceLevel = "l"
	PrevalenceHigh    PrevalenceLevel = "h"
)

// InterVASettings holds the validated InterVA_Conf and Advanced_InterVA_Conf
// rows. Directory has already been resolved against the pipeline working
// directory.
type InterVASettings struct {
	Version       string // "4" or "5"
	HIV           PrevalenceLevel
	Malaria       PrevalenceLevel
	Directory     string
	Filename      string
	Output        string // "classic" or "extended"
	Append        bool
	GroupCode     bool
	Replicate     bool
	ReplicateBug1 bool
	ReplicateBug2 bool
	Write         bool
}

func (InterVASettings) Family() Algorithm { return AlgorithmInterVA }

// InSilicoVASettings holds the validated InSilicoVA_Conf and
// Advanced_InSilicoVA_Conf rows. Nil pointers carry the "NULL" sentinel
// for fields the algorithm treats as unset.
type InSilicoVASettings struct {
	DataType          string // "WHO2012" or "WHO2016"
	NSim              int
	IsNumeric         bool
	UpdateCondProb    bool
	KeepProbbaseLevel bool
	CondProb          string
	CondProbNum       *float64
	DataCheck         bool
	DataCheckMissing  bool
	WarningWrite      bool
	Directory         string
	ExternalSep       bool
	Thin              float64
	BurnIn            float64
	AutoLength        bool
	ConvCSMF          float64
	JumpScale         float64
	LevelsPrior       string
	LevelsStrength    float64
	TruncMin          float64
	TruncMax          float64
	SubPop            string
	JavaOption        string
	Seed              float64
	PhyCode           string
	PhyCat            string
	PhyUnknown        string
	PhyExternal       string
	PhyDebias         string
	ExcludeImpossible string // "subset", "all", "InterVA", or "none"
	NoIsMissing       bool
	IndivCI           *float64
	GroupCode         bool
}

func (InSilicoVASettings) Family() Algorithm { return AlgorithmInSilicoVA }

// SmartVASettings holds the validated SmartVA_Conf row. Country is an
// abbreviation from the SmartVA_Country reference table.
type SmartVASettings struct {
	Country  string
	HIV      bool
	Malaria  bool
	HCE      bool
	FreeText bool
	Figures  bool
	Language string // "english", "chinese", or "spanish"
}

func (SmartVASettings) Family() Algorithm { return AlgorithmSmartVA }
