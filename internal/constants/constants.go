package constants

import "time"

// Route Execution
const (
	RetryCountMax = 2 // Retry-eligible misses per route before the route is skipped

	// Click thresholds
	ClickThreshold      = 0.93  // Nominal click confidence for teleport targets
	RetryEligibleFloor  = 0.80  // Misses above this (and below nominal) may be retried
	LowConfidenceMark   = 0.99  // Matches below this are kept in the session match log
	CheckpointThreshold = 0.992 // Checkpoint icons must match almost exactly
	OrientationClick    = 0.97
	BackButtonThreshold = 0.94
	AnchorClick41       = 0.95
	StarMapThreshold    = 0.97

	// Click timing
	ClickTimeout        = 10 * time.Second
	BackButtonTimeout   = 3 * time.Second
	ClickInterval       = 100 * time.Millisecond
	ProbeInterval       = 100 * time.Millisecond // Wait between probes while hunting a target
	MaxPreClickWait     = 800 * time.Millisecond // Upper bound on the step's own pre-click wait
	TransferPreWait     = 200 * time.Millisecond
	PlanetSettleWait    = 5 * time.Second
	PostPlanetWait      = 1700 * time.Millisecond
	PostAnchorWait      = 1700 * time.Millisecond
	CheckpointSettle    = 1 * time.Second
	RestartSettleWait   = 1 * time.Second
	PlanetRetryAttempts = 5
	OrientationMaxDelay = 4 * time.Second
	OrientationAttempts = 5
)

// Navigation Assist
const (
	MapSearchThreshold    = 0.975
	SceneSearchThreshold  = 0.99
	SearchMinThreshold    = 0.93
	SearchTimeout         = 60 * time.Second
	MapThresholdStep      = 0.01 // Decay per full direction cycle on the map
	SceneThresholdStep    = 0.02 // Decay per cycle in the scene panel
	PansPerDirection      = 3
	ScenePansPerDirection = 1
)

// Handle (primitive actions)
const (
	SprintFactor          = 1.25            // Sprinting covers the same ground in 1/SprintFactor time
	SprintMinDuration     = 1 * time.Second // Short moves are walked
	TimeDesyncTolerance   = 300 * time.Millisecond
	InteractRetries       = 3
	InteractWait          = 500 * time.Millisecond
	CombatEnterTimeout    = 3 * time.Second
	CombatTimeout         = 10 * time.Minute
	CombatPollInterval    = 500 * time.Millisecond
	AnomalousCombatLimit  = 5 * time.Second // Combats shorter than this are counted as anomalous
	BackToMainAttempts    = 6
	OpenMapAttempts       = 10
	SceneLoadTimeout      = 30 * time.Second
	ViewPitchPixels       = 400
	RotatePixelsPerDegree = 3

	// Star map
	MapOpenedThreshold  = 0.97
	MapBackThreshold    = 0.99
	MapKeyWait          = 50 * time.Millisecond
	MapRecognitionDelay = 3 * time.Second // The map fades in; earlier probes misread it
	QuickOpenWindow     = 3 * time.Second // How long the map key is retried while the main interface lingers
	MapMinimiseClicks   = 10
	MapBackAttempts     = 5

	// Camera
	AlignSettleWait = 1 * time.Second
	PreMapViewWait  = 0.1 // Seconds, for the view_set before the map steps

	// Missed-enemy sweep
	DoubtThreshold    = 0.92
	SweepTimeout      = 60 * time.Second
	SweepStepsPerSide = 3
	SweepStepMove     = 0.1 // Seconds held per direction step
	SweepTechnique    = 2   // Seconds waited after each technique cast
	LastStrikeWindow  = 200 * time.Millisecond
)

// Image Matching
const (
	DefaultTolerance = 60   // Color tolerance for pixel comparison
	ReferenceWidth   = 1920 // Templates are cut from a 1920px wide client
	BlackPixelLimit  = 16   // Luminance at or below which a pixel counts as black
	BlackScreenRatio = 0.95

	// Debugging
	DebugDump = false
)

// Reference templates, relative to the assets directory.
const (
	MainInterfaceTemplate  = "picture/finish_fighting.png"
	StarMapTemplate        = "picture/kaituoli_1.png"
	TransferTemplate       = "picture/transfer.png"
	MapOpenedTemplate      = "picture/contraction.png"
	InteractPromptTemplate = "picture/f_prompt.png"
	SnackPromptTemplate    = "picture/snack_confirm.png"
	MapBackTemplate        = "picture/map_back.png"
	DoubtTemplate          = "picture/doubt.png"
)

// SweepVersion is the route version whose character can leave enemies
// alerted behind; its routes end with a sweep for them.
const SweepVersion = "HuangQuan"
