package main

import "github.com/richinsley/gofboview/renderer"

// snapshotSchedule picks the frames that are written to the snapshot
// files: the last frame of a bounded run, or the first frame of an
// open-ended one, plus any frame rendered after a key press.
type snapshotSchedule struct {
	last      int
	requested bool
}

func newSnapshotSchedule(frames int) *snapshotSchedule {
	s := &snapshotSchedule{}
	if frames > 0 {
		s.last = frames - 1
	}
	return s
}

func (s *snapshotSchedule) want(frame int) bool {
	return frame == s.last || s.requested
}

// request asks for the next rendered frame.
func (s *snapshotSchedule) request() {
	s.requested = true
}

// taken runs after the capture hooks of a frame and clears a pending
// request.
func (s *snapshotSchedule) taken(r *renderer.Renderer, frame int) error {
	s.requested = false
	return nil
}
