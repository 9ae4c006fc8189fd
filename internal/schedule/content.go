package schedule

import (
	"fmt"
	"strings"
)

// retryMarker is prepended to task content once a task has failed three or
// more times, making chronic reschedules visible in the task list.
const retryMarker = "\U0001F504" // 🔄

// failedSuffixSep marks the start of the "(Failed Nx)" suffix appended by a
// previous run. Everything from the first occurrence onward is stripped
// before the current count is appended, so markers never accumulate.
const failedSuffixSep = " (Failed"

// RewriteContent returns task content annotated for the given failure count.
// Any retry marker or failure suffix left by earlier runs is removed first,
// then a retry marker is prepended if failures >= 3 and a "(Failed Nx)"
// suffix appended if failures > 1.
func RewriteContent(content string, failures int) string {
	base := strings.ReplaceAll(content, retryMarker, "")
	if i := strings.Index(base, failedSuffixSep); i >= 0 {
		base = base[:i]
	}

	prefix := ""
	if failures >= 3 {
		prefix = retryMarker
	}
	suffix := ""
	if failures > 1 {
		suffix = fmt.Sprintf(" (Failed %dx)", failures)
	}

	return prefix + base + suffix
}
