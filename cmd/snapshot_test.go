package main

import "testing"

func TestSnapshotSchedule(t *testing.T) {
	tests := []struct {
		name    string
		frames  int
		request int // frame after which S is pressed, -1 for never
		want    []int
	}{
		{"bounded run takes the last frame", 3, -1, []int{2}},
		{"single frame", 1, -1, []int{0}},
		{"open-ended run takes the first frame", 0, -1, []int{0}},
		{"key press takes the next frame", 0, 2, []int{0, 3}},
		{"key press in a bounded run", 6, 1, []int{2, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSnapshotSchedule(tt.frames)
			var got []int
			for frame := 0; frame < 6; frame++ {
				if s.want(frame) {
					got = append(got, frame)
				}
				if err := s.taken(nil, frame); err != nil {
					t.Fatal(err)
				}
				if frame == tt.request {
					s.request()
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("snapshots at %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("snapshots at %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSnapshotRequestClearedAfterFrame(t *testing.T) {
	s := newSnapshotSchedule(100)
	s.request()
	if !s.want(10) {
		t.Fatal("requested snapshot was not taken")
	}
	if err := s.taken(nil, 10); err != nil {
		t.Fatal(err)
	}
	if s.want(11) {
		t.Error("request still pending after the frame was captured")
	}
}
