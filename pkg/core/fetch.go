package core

// FetchOutput is the latched output of the Fetch stage.
type FetchOutput struct {
	PC             uint32
	PCPlus4        uint32
	RawInstruction uint32
	Fault          bool
	FaultAddress   uint32
}

// Fetch is the Fetch pipeline stage. Reset returns pc/pc_plus_4 to the
// ROM base address.
type Fetch struct {
	out *Latch[FetchOutput]
}

func NewFetch() *Fetch {
	def := FetchOutput{PC: romBase, PCPlus4: romBase}
	return &Fetch{out: NewLatch(def)}
}

func (f *Fetch) Output() FetchOutput { return f.out.Get() }

type FetchInputs struct {
	ShouldStall bool
	Bus         *Bus
	// ExecuteOut is the Execute stage's current output, consulted for a
	// branch redirect: a Jal always redirects; a Branch's branch_address
	// already collapses to pc_plus_4 when not taken, so checking the Kind
	// alone is sufficient.
	ExecuteOut                StageOutput
	ExecuteIsJalOrTakenBranch bool
}

func (f *Fetch) Compute(in FetchInputs) {
	if in.ShouldStall {
		return
	}
	cur := f.out.Get()
	nextAddress := cur.PCPlus4
	if in.ExecuteIsJalOrTakenBranch {
		nextAddress = in.ExecuteOut.BranchAddress
	}

	out := FetchOutput{PC: nextAddress, PCPlus4: nextAddress + 4}
	word, err := in.Bus.ReadWord(nextAddress)
	if err != nil {
		out.Fault = true
		out.FaultAddress = nextAddress
	} else {
		out.RawInstruction = word
	}
	f.out.Set(out)
}

// Redirect overwrites pc and pc_plus_4 with target, used by the trap
// controller (trap entry/MRET) to steer the next fetch.
func (f *Fetch) Redirect(target uint32) {
	cur := f.out.Get()
	f.out.Set(FetchOutput{PC: target, PCPlus4: target, RawInstruction: cur.RawInstruction})
}

func (f *Fetch) LatchNext() { f.out.LatchNext() }
func (f *Fetch) Reset()     { f.out.Reset() }
