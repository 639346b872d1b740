package index

import "sort"

// PostingList is a sorted, duplicate-free list of document IDs. DocIDs are
// ordered byte-wise as plain strings, so "10" sorts before "2".
type PostingList []string

// Contains reports whether docID is in p.
func (p PostingList) Contains(docID string) bool {
	i := sort.SearchStrings(p, docID)
	return i < len(p) && p[i] == docID
}

// IsSorted reports whether p is strictly ascending.
func (p PostingList) IsSorted() bool {
	for i := 1; i < len(p); i++ {
		if p[i-1] >= p[i] {
			return false
		}
	}
	return true
}

// And returns the intersection of two sorted lists in O(|a|+|b|).
func And(a, b PostingList) PostingList {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	result := make(PostingList, 0, n)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return result
}

// Or returns the sorted union of two sorted lists.
func Or(a, b PostingList) PostingList {
	result := make(PostingList, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			result = append(result, a[i])
			i++
		default:
			result = append(result, b[j])
			j++
		}
	}
	result = append(result, a[i:]...)
	result = append(result, b[j:]...)
	return result
}

// Not returns the elements of universe that are absent from a.
func Not(a, universe PostingList) PostingList {
	result := make(PostingList, 0, len(universe))
	j := 0
	for _, docID := range universe {
		for j < len(a) && a[j] < docID {
			j++
		}
		if j < len(a) && a[j] == docID {
			continue
		}
		result = append(result, docID)
	}
	return result
}
