package dnscheck

import (
	"fmt"
	"sort"
)

// MatchTXT checks a single-TXT category (ownership, SPF, DMARC): ok iff at
// least one actual record's normalized value is acceptable. On failure the
// discrepancy list holds every retrieved value so the operator can see what
// the resolver actually returned.
func MatchTXT(expected RecordSet, actual []string) (bool, []string) {
	if len(actual) == 0 {
		return false, []string{EmptyDiscrepancy}
	}

	discrepancies := make([]string, 0, len(actual))
	for _, value := range actual {
		normalized := NormalizeTXT(value)
		if expected.Matches(normalized) {
			return true, nil
		}
		discrepancies = append(discrepancies, normalized)
	}
	return false, discrepancies
}

// MatchMX checks the priority-keyed MX category: ok iff every required tier
// has at least one actual record at that exact priority with an acceptable
// target. Extra records at unexpected priorities never fail the check.
func MatchMX(expected map[uint16]RecordSet, actual []MX) (bool, []string) {
	if len(actual) == 0 {
		return false, []string{EmptyDiscrepancy}
	}

	priorities := make([]uint16, 0, len(expected))
	for priority := range expected {
		priorities = append(priorities, priority)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	var discrepancies []string
	for _, priority := range priorities {
		rs := expected[priority]
		matched := false
		for _, record := range actual {
			if record.Priority == priority && rs.Matches(NormalizeHost(record.Host)) {
				matched = true
				break
			}
		}
		if !matched {
			discrepancies = append(discrepancies,
				fmt.Sprintf("no MX record at priority %d pointing to %s", priority, rs.Recommended))
		}
	}

	return len(discrepancies) == 0, discrepancies
}

// PrefixStatus is the resolution outcome for one DKIM prefix lookup.
type PrefixStatus int

const (
	PrefixFound PrefixStatus = iota
	PrefixNotFound
	PrefixError
)

// PrefixResult is the resolved CNAME for one DKIM prefix. A resolver error
// on one prefix is attributed to that prefix alone.
type PrefixResult struct {
	Target string
	Status PrefixStatus
}

// MatchDKIM checks the prefix-keyed DKIM category: ok iff every expected
// prefix resolved to an acceptable CNAME target. The returned map holds an
// entry for every prefix so the caller can render a complete picture: ""
// for a match, the retrieved target for a mismatch, "not found" for an
// absent record, or a resolver error note.
func MatchDKIM(expected map[string]RecordSet, actual map[string]PrefixResult) (bool, map[string]string) {
	retrieved := make(map[string]string, len(expected))
	ok := true

	for prefix, rs := range expected {
		result, present := actual[prefix]
		if !present || result.Status == PrefixNotFound {
			retrieved[prefix] = "not found"
			ok = false
			continue
		}
		if result.Status == PrefixError {
			retrieved[prefix] = "resolver error, please retry"
			ok = false
			continue
		}

		normalized := NormalizeHost(result.Target)
		if rs.Matches(normalized) {
			retrieved[prefix] = ""
		} else {
			retrieved[prefix] = normalized
			ok = false
		}
	}

	return ok, retrieved
}
