package wave

import (
	"fmt"

	"github.com/san-kum/wavesim/internal/field"
)

// token hands a worker one step of work.
type token struct {
	step int
	done chan<- report
}

// report is a worker's completion acknowledgment for one step.
type report struct {
	worker    int
	step      int
	nonFinite int
	err       error
}

// worker owns rows [y0, y1) of the grid for the lifetime of the simulator.
type worker struct {
	id     int
	y0, y1 int
	n      int
	consts Constants

	prev, cur, next *field.Grid
	tokens          chan token

	// scratch, reused every step
	curBuf  []float64
	prevBuf []float64
	params  []field.Params
	out     []float64

	// fault is a test seam invoked before each update.
	fault func(worker, step int)
}

func newWorker(id, y0, y1, n int, k Constants, prev, cur, next *field.Grid) *worker {
	rows := y1 - y0
	return &worker{
		id:      id,
		y0:      y0,
		y1:      y1,
		n:       n,
		consts:  k,
		prev:    prev,
		cur:     cur,
		next:    next,
		tokens:  make(chan token, 1),
		curBuf:  make([]float64, (rows+2)*n),
		prevBuf: make([]float64, (rows+2)*n),
		params:  make([]field.Params, (rows+2)*n),
		out:     make([]float64, rows*n),
	}
}

// loop serves tokens until the token channel is closed.
func (w *worker) loop() {
	for tok := range w.tokens {
		tok.done <- w.process(tok.step)
	}
}

func (w *worker) process(step int) (r report) {
	r = report{worker: w.id, step: step}
	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("%w: worker %d panicked: %v", ErrWorkerFailed, w.id, p)
		}
	}()

	if w.fault != nil {
		w.fault(w.id, step)
	}

	w.cur.CopyBand(w.curBuf, w.params, w.y0-1, w.y1+1)
	w.prev.CopyBand(w.prevBuf, nil, w.y0-1, w.y1+1)

	r.nonFinite = updateBand(w.out, w.curBuf, w.prevBuf, w.params, w.n, w.y0, w.y1-w.y0, w.consts)

	if err := w.next.WriteRows(w.out, w.y0); err != nil {
		r.err = fmt.Errorf("%w: worker %d: %v", ErrWorkerFailed, w.id, err)
	}
	return r
}
