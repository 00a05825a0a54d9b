package models

// InsertionDuration is one completed insertion recovered from a bookmark playlist.
// Times are in seconds.
type InsertionDuration struct {
	// Recording is the playlist file the insertion was read from
	Recording string

	// Name is the insertion descriptor without the phase prefix, e.g. "t3_JV_ip_2"
	Name string

	Target      string
	TargetIndex int
	Operator    string
	Plane       string
	Attempt     int

	PlanningTime  float64
	InsertionTime float64
	TotalTime     float64
}

// BaselineTiming is the start/end of one CT-baseline insertion taken from the
// sequence image recordings
type BaselineTiming struct {
	Name        string
	Target      string
	TargetIndex int
	Plane       string
	Strokes     Strokes
	Operator    string

	// Start, End and Duration are in seconds of the recording clock
	Start    float64
	End      float64
	Duration float64
}

// RiskDistance is the distance from a needle tip to one risk structure
type RiskDistance struct {
	Structure string
	Distance  float64
}

// CryotrackRow holds the accuracy metrics of one Cryotrack-assisted insertion
type CryotrackRow struct {
	Name        string
	Target      string
	TargetIndex int
	Operator    string
	Plane       Plane

	RiskDistances []RiskDistance

	EuclideanError float64
	LateralError   float64
	TipToTumor     float64
	RiskMin        float64
}

// BaselineRow holds the accuracy metrics of one CT-only insertion
type BaselineRow struct {
	Name        string
	Target      string
	TargetIndex int
	Plane       Plane
	Strokes     Strokes
	Operator    string

	RiskDistances []RiskDistance

	EuclideanError  float64
	EntryPointError float64
	TipToTumor      float64
	LateralError    float64
	TargetDepth     float64
	RiskMin         float64
}
