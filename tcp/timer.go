package tcp

// Timer is a single-shot retransmission clock driven by explicit ticks.
type Timer struct {
	rto     uint
	elapsed uint
	running bool
}

// NewTimer returns a stopped Timer that expires rto milliseconds after Start.
func NewTimer(rto uint) Timer { return Timer{rto: rto} }

// Start (re)starts the timer from zero elapsed time.
func (t *Timer) Start() {
	t.elapsed = 0
	t.running = true
}

// Stop stops the timer. Ticks are ignored until the next Start.
func (t *Timer) Stop() { t.running = false }

// Tick advances a running timer by ms milliseconds.
func (t *Timer) Tick(ms uint) {
	if t.running {
		t.elapsed += ms
	}
}

// IsExpired returns true if the timer is running and its timeout has elapsed.
func (t *Timer) IsExpired() bool { return t.running && t.elapsed >= t.rto }

// IsRunning returns true between Start and Stop.
func (t *Timer) IsRunning() bool { return t.running }

// RTO returns the current timeout in milliseconds.
func (t *Timer) RTO() uint { return t.rto }

// SetRTO sets the timeout in milliseconds. It takes effect immediately.
func (t *Timer) SetRTO(rto uint) { t.rto = rto }
