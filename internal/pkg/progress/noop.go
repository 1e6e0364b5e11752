package progress

// NoopProgress игнорирует события. Используется при BR_SHOW_PROGRESS=false,
// в JSON режиме без потока и в тестах.
type NoopProgress struct{}

// NewNoOp создаёт NoopProgress.
func NewNoOp() Progress {
	return &NoopProgress{}
}

func (p *NoopProgress) Start(string, int)               {}
func (p *NoopProgress) StepStarted(int, string, string) {}
func (p *NoopProgress) StepFinished(int, Step)          {}
func (p *NoopProgress) Finish()                         {}
