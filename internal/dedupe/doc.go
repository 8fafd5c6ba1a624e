// Package dedupe provides a keyed suppression window: the first sighting of
// a key within the window is reported as new, repeats are reported as seen.
package dedupe
