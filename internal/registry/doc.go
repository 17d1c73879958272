// Package registry keeps a roster of cooperating windows in a shared
// key-value store.
//
// Each window owns one Registry. Init announces the window, Update is called
// once per frame to publish shape changes and pick up peers, and Close
// removes the window again. The stored roster is a single value with
// last-writer-wins semantics; a window whose record was lost to a concurrent
// write notices on its next Update and writes it back.
//
// Store writes never notify the writer, so Update always reads the roster
// back and diffs its id set against the cached one instead of waiting for a
// change notification.
package registry
