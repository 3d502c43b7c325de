package preload

// Progress is a point-in-time view of a preload run.
type Progress struct {
	Completed int
	Total     int
	Failed    []string
	Ended     bool
}

// Settled returns the number of entries that finished, successfully or not.
func (p Progress) Settled() int {
	return p.Completed + len(p.Failed)
}

// Fraction returns the settled share of the manifest in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 1
	}
	return float64(p.Settled()) / float64(p.Total)
}

// Callback receives preload progress on the logical thread.
type Callback interface {
	Update(Progress)
	Error(id string)
}

// CallbackFuncs adapts plain functions to Callback. Nil fields are skipped.
type CallbackFuncs struct {
	OnUpdate func(Progress)
	OnError  func(id string)
}

func (c CallbackFuncs) Update(p Progress) {
	if c.OnUpdate != nil {
		c.OnUpdate(p)
	}
}

func (c CallbackFuncs) Error(id string) {
	if c.OnError != nil {
		c.OnError(id)
	}
}
