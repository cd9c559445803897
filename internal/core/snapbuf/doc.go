// Package snapbuf provides the snapshot exchange buffer shared between the
// state producer and its consumers.
//
// The buffer holds one committed snapshot and mediates exclusive write
// access to it:
//
//   - BeginWrite opens the single write session (blocking while another
//     session is open) on a private deep copy of the committed snapshot.
//   - Commit swaps the workspace in atomically; Close/Abandon discard it.
//   - Read returns a deep copy of the latest commit and never waits for a
//     write session, only for the pointer swap itself.
//
// Usage:
//
//	sess, err := buf.BeginWrite(ctx)
//	if err != nil {
//		return err
//	}
//	defer sess.Close() // abandons unless committed
//	sess.Set("m1", state)
//	_, err = sess.Commit()
//
// Commits form a single total order; a Read that starts after a Commit
// returns observes that commit or a later one.
package snapbuf
