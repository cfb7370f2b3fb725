package stack

/*-------------------------------------------------------------
 *
 * Purpose:	The Message Router: owns the single thread of control, the
 *		downlink TDMA clock, the entity registry, and the per-tick
 *		drain loop.
 *
 *--------------------------------------------------------------*/

import (
	"fmt"

	charmlog "github.com/charmbracelet/log"
)

// Router is the single-threaded, time-stepped dispatcher at the heart
// of the stack. It is not safe for concurrent use; exactly one
// goroutine drives RunStack.
type Router struct {
	entities []Entity
	byKind   map[EntityKind]Entity
	dlTime   TdmaTime
	queue    *Queue
	log      *charmlog.Logger
}

// NewRouter constructs a router with an empty entity registry, seeded at
// the TETRA epoch.
func NewRouter(log *charmlog.Logger) *Router {
	return &Router{
		byKind: make(map[EntityKind]Entity),
		dlTime: DefaultTdmaTime(),
		queue:  NewQueue(),
		log:    log,
	}
}

// RegisterEntity inserts an entity into the registry. Registration order
// is preserved and used only as a tick_start/tick_end dispatch hint.
func (r *Router) RegisterEntity(e Entity) {
	r.entities = append(r.entities, e)
	r.byKind[e.EntityKind()] = e
}

// SetDlTime seeds the downlink clock.
func (r *Router) SetDlTime(t TdmaTime) {
	r.dlTime = t
}

// DlTime returns the router's current downlink clock value.
func (r *Router) DlTime() TdmaTime {
	return r.dlTime
}

// RunStack runs the per-tick protocol until the optional tick budget is
// exhausted (nil means run until an entity requests a stop).
func (r *Router) RunStack(ticks *int) {
	for i := 0; ticks == nil || i < *ticks; i++ {
		stop := r.tick()
		if stop {
			return
		}
	}
}

func (r *Router) tick() (stop bool) {
	ts := r.dlTime

	for _, e := range r.entities {
		e.TickStart(r.queue, ts)
	}

	r.drain()

	for _, e := range r.entities {
		if e.TickEnd(r.queue, ts) {
			stop = true
		}
	}

	r.dlTime = r.dlTime.AddSlots(1)
	return stop
}

// drain pops messages in strict FIFO enqueue order until the queue is
// empty, delivering each to the entity named by msg.Dst. Deliveries may
// enqueue further messages; the loop continues until none remain.
func (r *Router) drain() {
	for {
		msg, ok := r.queue.Pop()
		if !ok {
			return
		}
		dst, found := r.byKind[msg.Dst]
		if !found {
			panic(fmt.Sprintf("router: unknown destination entity %s", msg.Dst))
		}
		dst.RxPrim(r.queue, msg)
	}
}
