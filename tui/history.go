package tui

// inputHistory keeps recently submitted input lines for up/down recall.
// Lines are stored newest-first; recall depth counts back from the line
// being typed, so depth 0 means no recall is active.
type inputHistory struct {
	lines []string // index 0 is the newest line
	cap   int
	depth int
}

func newInputHistory(capacity int) *inputHistory {
	return &inputHistory{cap: capacity}
}

// Remember records a submitted line. Repeating the previous line adds
// nothing; when full the oldest line falls off.
func (h *inputHistory) Remember(line string) {
	if len(h.lines) > 0 && h.lines[0] == line {
		return
	}
	h.lines = append([]string{line}, h.lines...)
	if len(h.lines) > h.cap {
		h.lines = h.lines[:h.cap]
	}
}

// Older steps one line further back and returns it. At the oldest line it
// keeps returning that line; with nothing remembered it reports false.
func (h *inputHistory) Older() (string, bool) {
	if len(h.lines) == 0 {
		return "", false
	}
	if h.depth < len(h.lines) {
		h.depth++
	}
	return h.lines[h.depth-1], true
}

// Newer steps one line forward. Stepping past the newest line ends the
// recall and reports false, handing the prompt back to fresh input.
func (h *inputHistory) Newer() (string, bool) {
	if h.depth <= 1 {
		h.depth = 0
		return "", false
	}
	h.depth--
	return h.lines[h.depth-1], true
}

// Reset ends any active recall.
func (h *inputHistory) Reset() {
	h.depth = 0
}
