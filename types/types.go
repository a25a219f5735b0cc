package types

// ImageMatch is a candidate whose fingerprint is within the threshold
type ImageMatch struct {
	Path     string
	URI      string
	Distance int
}

// StopReason tells why a search ended
type StopReason int

const (
	// StopExhausted means every candidate was examined
	StopExhausted StopReason = iota
	// StopDeclined means the user answered no at the prompt
	StopDeclined
	// StopInterrupted means the user interrupted the prompt
	StopInterrupted
	// StopAborted means the run was cancelled while scanning
	StopAborted
)

func (r StopReason) String() string {
	switch r {
	case StopExhausted:
		return "exhausted"
	case StopDeclined:
		return "declined"
	case StopInterrupted:
		return "interrupted"
	case StopAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ScanState holds the counters and results of one search run
type ScanState struct {
	Processed  int
	Matched    int
	Failed     int
	Matches    []ImageMatch
	// Distances of processed candidates, collected only at debug verbosity
	Distances  []float64
	Closest    *ImageMatch
	StopReason StopReason
}

// RecordMiss keeps the closest candidate that did not match
func (s *ScanState) RecordMiss(m ImageMatch) {
	if s.Closest == nil || m.Distance < s.Closest.Distance {
		c := m
		s.Closest = &c
	}
}
