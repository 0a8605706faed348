package dispatch

// MaxChunkLen is the longest comma-joined list of index names sent in one
// call. Longer lists exceed the length limits of request lines.
const MaxChunkLen = 3072

// Chunk splits names into consecutive groups whose comma-joined length is
// at most max. A name longer than max is a group of its own. Every name
// is in exactly one group, in order.
func Chunk(names []string, max int) [][]string {
	if len(names) == 0 {
		return nil
	}
	var (
		chunks [][]string
		start  int
		size   int // comma-joined length of names[start:i]
	)
	for i, name := range names {
		grown := size + len(name)
		if i > start {
			grown++ // comma
		}
		if i > start && grown > max {
			chunks = append(chunks, names[start:i:i])
			start, grown = i, len(name)
		}
		size = grown
	}
	return append(chunks, names[start:len(names):len(names)])
}

// csvLen returns the length of names joined with commas.
func csvLen(names []string) int {
	if len(names) == 0 {
		return 0
	}
	n := len(names) - 1
	for _, name := range names {
		n += len(name)
	}
	return n
}
