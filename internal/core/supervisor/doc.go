// Package supervisor keeps a fixed set of named workers alive.
//
// Each slot owns a worker factory. A poll loop starts every slot's worker
// at once, then checks the slots every PollInterval and replaces any dead
// worker with a fresh one from its factory. Nothing is carried over from a
// dead worker. Slots that keep failing are throttled by RestartBackoff.
//
// Shutdown stops the poll loop, asks every worker to stop and waits for
// each one with a bounded timeout.
package supervisor
