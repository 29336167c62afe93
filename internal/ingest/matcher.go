// Cohortlens - Learning Cohort Analytics Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cohortlens

package ingest

// markerMatcher is an Aho-Corasick automaton over byte strings. It answers
// "does the text contain any of the markers" in one pass over the text,
// regardless of how many markers are configured. It is immutable after
// construction and safe for concurrent use.
type markerMatcher struct {
	root *matchNode
}

type matchNode struct {
	children map[byte]*matchNode
	failure  *matchNode
	// terminal is set when some marker ends here or at a suffix reachable
	// through failure links.
	terminal bool
}

func newMatchNode() *matchNode {
	return &matchNode{children: make(map[byte]*matchNode)}
}

// newMarkerMatcher builds the automaton. Empty markers are ignored; callers
// normalize case before building and before matching.
func newMarkerMatcher(markers []string) *markerMatcher {
	m := &markerMatcher{root: newMatchNode()}
	for _, marker := range markers {
		if marker == "" {
			continue
		}
		node := m.root
		for i := 0; i < len(marker); i++ {
			next, ok := node.children[marker[i]]
			if !ok {
				next = newMatchNode()
				node.children[marker[i]] = next
			}
			node = next
		}
		node.terminal = true
	}
	m.link()
	return m
}

// link sets failure links breadth first.
func (m *markerMatcher) link() {
	queue := make([]*matchNode, 0, len(m.root.children))
	for _, child := range m.root.children {
		child.failure = m.root
		queue = append(queue, child)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for ch, child := range current.children {
			queue = append(queue, child)

			fail := current.failure
			for fail != nil && fail.children[ch] == nil {
				fail = fail.failure
			}
			if fail == nil {
				child.failure = m.root
				continue
			}
			child.failure = fail.children[ch]
			if child.failure.terminal {
				child.terminal = true
			}
		}
	}
}

// containsAny reports whether text contains at least one marker.
func (m *markerMatcher) containsAny(text string) bool {
	node := m.root
	for i := 0; i < len(text); i++ {
		ch := text[i]
		for node != m.root && node.children[ch] == nil {
			node = node.failure
		}
		if next, ok := node.children[ch]; ok {
			node = next
		}
		if node.terminal {
			return true
		}
	}
	return false
}
