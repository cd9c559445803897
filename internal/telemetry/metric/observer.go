package metric

import (
	"time"
)

// OnCommit records a buffer commit.
func (r *Registry) OnCommit(seq uint64, models int, held time.Duration) {
	r.Commits.Inc()
	r.SnapshotSeq.Set(float64(seq))
	r.SnapshotModels.Set(float64(models))
	r.SessionDuration.Observe(held.Seconds())
}

// OnAbandon records an abandoned write session.
func (r *Registry) OnAbandon() {
	r.Abandons.Inc()
}

// OnIterationFailure records a failed worker iteration.
func (r *Registry) OnIterationFailure(name string, err error, fatal bool) {
	kind := "transient"
	if fatal {
		kind = "fatal"
	}
	r.WorkerFailures.WithLabelValues(name, kind).Inc()
}

// OnWorkerStart records a worker start by the supervisor.
func (r *Registry) OnWorkerStart(slot string, restart bool) {
	kind := "start"
	if restart {
		kind = "restart"
	}
	r.WorkerStarts.WithLabelValues(slot, kind).Inc()
}

// OnStartFailure records a worker factory failure.
func (r *Registry) OnStartFailure(slot string, err error) {
	r.StartFailures.WithLabelValues(slot).Inc()
}

// OnJoinTimeout records a worker that did not stop in time.
func (r *Registry) OnJoinTimeout(slot string) {
	r.JoinTimeouts.WithLabelValues(slot).Inc()
}

// OnClientConnected records a new WebSocket client.
func (r *Registry) OnClientConnected() {
	r.ClientsConnected.Inc()
}

// OnClientDisconnected records a closed WebSocket client.
func (r *Registry) OnClientDisconnected() {
	r.ClientsConnected.Dec()
}

// OnFrameSent records a frame written to a client.
func (r *Registry) OnFrameSent() {
	r.FramesSent.Inc()
}

// OnFrameDropped records a frame replaced in a client mailbox.
func (r *Registry) OnFrameDropped() {
	r.FramesDropped.Inc()
}

// OnCommand records an inbound command. result is "accepted", "invalid"
// or "rate_limited".
func (r *Registry) OnCommand(result string) {
	r.Commands.WithLabelValues(result).Inc()
}
