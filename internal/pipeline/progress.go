package pipeline

// ProgressFunc receives completion percentages in [0, 100].
type ProgressFunc func(percent int)

// Progress checkpoints, in pipeline order.
const (
	progressDecoded    = 10
	progressRotated    = 25
	progressPlaced     = 45
	progressRecolored  = 55
	progressBanded     = 60
	progressEncodeEnd  = 95
	progressDone       = 100
	encodeProgressStep = 5
)

// progressReporter forwards percentages to fn, never going backwards and
// never repeating a value.
type progressReporter struct {
	fn   ProgressFunc
	last int
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (p *progressReporter) report(percent int) {
	if percent > progressDone {
		percent = progressDone
	}
	if percent <= p.last {
		return
	}
	p.last = percent
	if p.fn != nil {
		p.fn(percent)
	}
}

// encodeAttempt advances progress by one step per encoder call, staying
// below progressEncodeEnd until encoding is finished.
func (p *progressReporter) encodeAttempt(n int) {
	pct := progressBanded + n*encodeProgressStep
	if pct > progressEncodeEnd-1 {
		pct = progressEncodeEnd - 1
	}
	p.report(pct)
}
