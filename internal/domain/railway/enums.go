package railway

// TrainType is persisted by name. Its priority is an explicit attribute of the variant;
// comparisons never depend on declaration order.
type TrainType string

const (
	TrainTypeLocal          TrainType = "LOCAL"
	TrainTypeRapid          TrainType = "RAPID"
	TrainTypeExpress        TrainType = "EXPRESS"
	TrainTypeLimitedExpress TrainType = "LIMITED_EXPRESS"
)

type TrainTypeInfo struct {
	DisplayName string
	Priority    int
}

var trainTypes = map[TrainType]TrainTypeInfo{
	TrainTypeLocal:          {DisplayName: "Local", Priority: 1},
	TrainTypeRapid:          {DisplayName: "Rapid", Priority: 2},
	TrainTypeExpress:        {DisplayName: "Express", Priority: 3},
	TrainTypeLimitedExpress: {DisplayName: "Limited Express", Priority: 4},
}

func (t TrainType) Valid() bool {
	_, ok := trainTypes[t]
	return ok
}

func (t TrainType) Info() TrainTypeInfo { return trainTypes[t] }

// Priority is 0 for unknown types.
func (t TrainType) Priority() int { return trainTypes[t].Priority }

func (t TrainType) DisplayName() string { return trainTypes[t].DisplayName }

func (t TrainType) HasHigherPriorityThan(other TrainType) bool {
	return t.Priority() > other.Priority()
}

// SignalCapability is a bitset of what a signal type is allowed to control.
type SignalCapability uint8

const (
	SignalMainLine SignalCapability = 1 << iota
	SignalEmergencyControl
	SignalRouteSetting
	SignalYardMovement
)

func (c SignalCapability) Has(flag SignalCapability) bool { return c&flag == flag }

type SignalType string

const (
	SignalTypeBlock    SignalType = "BLOCK"
	SignalTypePath     SignalType = "PATH"
	SignalTypeAbsolute SignalType = "ABSOLUTE"
	SignalTypeShunting SignalType = "SHUNTING"
)

type SignalTypeInfo struct {
	DisplayName  string
	Description  string
	Capabilities SignalCapability
}

var signalTypes = map[SignalType]SignalTypeInfo{
	SignalTypeBlock: {
		DisplayName:  "Block signal",
		Description:  "Basic block section control",
		Capabilities: SignalMainLine,
	},
	SignalTypePath: {
		DisplayName:  "Route signal",
		Description:  "Route control at junctions",
		Capabilities: SignalMainLine | SignalRouteSetting,
	},
	SignalTypeAbsolute: {
		DisplayName:  "Absolute signal",
		Description:  "Absolute control for emergencies and critical sections",
		Capabilities: SignalMainLine | SignalEmergencyControl,
	},
	SignalTypeShunting: {
		DisplayName:  "Shunting signal",
		Description:  "Shunting moves in depots and station yards",
		Capabilities: SignalYardMovement,
	},
}

func (s SignalType) Valid() bool {
	_, ok := signalTypes[s]
	return ok
}

func (s SignalType) Info() SignalTypeInfo { return signalTypes[s] }

func (s SignalType) Capabilities() SignalCapability { return signalTypes[s].Capabilities }

func (s SignalType) IsMainLine() bool { return s.Capabilities().Has(SignalMainLine) }

func (s SignalType) HasEmergencyControl() bool {
	return s.Capabilities().Has(SignalEmergencyControl)
}

type JunctionType string

const (
	JunctionMerge    JunctionType = "MERGE"
	JunctionSplit    JunctionType = "SPLIT"
	JunctionCross    JunctionType = "CROSS"
	JunctionTerminal JunctionType = "TERMINAL"
)

type junctionFlags uint8

const (
	junctionSplits junctionFlags = 1 << iota
	junctionMerges
)

var junctionTypes = map[JunctionType]junctionFlags{
	JunctionMerge:    junctionMerges,
	JunctionSplit:    junctionSplits,
	JunctionCross:    junctionSplits | junctionMerges,
	JunctionTerminal: 0,
}

func (j JunctionType) Valid() bool {
	_, ok := junctionTypes[j]
	return ok
}

func (j JunctionType) CanSplit() bool { return junctionTypes[j]&junctionSplits != 0 }
func (j JunctionType) CanMerge() bool { return junctionTypes[j]&junctionMerges != 0 }

type TrainOperationState string

const (
	TrainStopped   TrainOperationState = "STOPPED"
	TrainMoving    TrainOperationState = "MOVING"
	TrainBoarding  TrainOperationState = "BOARDING"
	TrainEmergency TrainOperationState = "EMERGENCY"
	TrainDeadhead  TrainOperationState = "DEADHEAD"
	TrainAwaiting  TrainOperationState = "AWAITING"
)

func (s TrainOperationState) Valid() bool {
	switch s {
	case TrainStopped, TrainMoving, TrainBoarding, TrainEmergency, TrainDeadhead, TrainAwaiting:
		return true
	}
	return false
}

func (s TrainOperationState) CanMove() bool     { return s == TrainMoving || s == TrainDeadhead }
func (s TrainOperationState) CanBoard() bool    { return s == TrainBoarding }
func (s TrainOperationState) IsEmergency() bool { return s == TrainEmergency }
