package codec

import "errors"

var (
	errShortInput = errors.New("codec: smaz input truncated")
	errBadCode    = errors.New("codec: smaz unknown code byte")
)

// smaz is a small dictionary coder for short ASCII bursts: a fixed
// codebook of common English substrings, each represented by a single
// byte 0-253. Bytes 0xFE and 0xFF are reserved escapes for substrings the
// codebook doesn't cover:
//
//   0xFE <byte>        a single literal byte
//   0xFF <n-1> <n bytes>  a literal run of n (1-32) raw bytes
//
// This trades compression ratio for near-zero overhead on keystroke-sized
// interactive bursts, where a general-purpose compressor's fixed costs
// dominate.

const (
	smazLiteralByte = 0xFE
	smazLiteralRun  = 0xFF
	smazMaxRun      = 32
)

// codebook holds exactly 254 entries (codes 0-253). Longer, more common
// substrings are listed first so a greedy longest-match favors them.
var codebook = buildCodebook()

// maxCodeLen is the longest entry in codebook, bounding how far the
// encoder needs to look ahead for a match.
var maxCodeLen int

func buildCodebook() []string {
	words := []string{
		" the", "the ", " and", "and ", "tion", "ing ", " to ", " of ",
		"ment", "ation", " a ", " is ", " in ", "ed ", "er ", "es ",
		" that", " for", " you", " with", " this", " not", " on ", " be ",
		"have", "from", "they", "will", "would", "there", "their", "what",
		"about", "which", "when", "make", "like", "time", "just", "know",
		"take", "into", "year", "your", "good", "some", "could", "them",
		"other", "than", "then", "look", "only", "come", "over", "think",
		"also", "back", "after", "use ", "two ", "how ", "our ", "work",
		"first", "well", "even", "new ", "want", "because", "any ", "these",
		"give", "day ", "most", "us ", "error", "null", "true", "false",
		"http://", "https://", "www.", ".com", ".org", ".net", "\r\n", "\n",
		"Error", "Warning", "Info", "Debug", "Failed", "Success", "Session",
		"session", "connect", "disconnect", "timeout", "retry", "exit",
		"command", "cmd", "bash", "shell", "root", "user", "admin",
		"password", "token", "config", "version", "started", "stopped",
		"running", "process", "file", "directory", "path", "name",
		"value", "key", "data", "byte", "read", "write", "open", "close",
		"request", "response", "server", "client", "port", "host", "addr",
	}

	seen := make(map[string]bool, 254)
	out := make([]string, 0, 254)
	for _, w := range words {
		if seen[w] || w == "" {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == 254 {
			break
		}
	}

	// Pad with single printable ASCII characters not already present, so
	// every printable ASCII byte gets at least a length-1 code. Other byte
	// values without an entry go through the literal escapes.
	for c := 0x20; c <= 0x7e && len(out) < 254; c++ {
		s := string(rune(c))
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}

	for len(out) < 254 {
		out = append(out, "\x00")
	}

	return out
}

func init() {
	for _, w := range codebook {
		if len(w) > maxCodeLen {
			maxCodeLen = len(w)
		}
	}
}

func smazCompress(data []byte) []byte {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		code, n := longestCodebookMatch(data[i:])
		if n > 0 {
			out = append(out, byte(code))
			i += n
			continue
		}

		// No codebook match at i: accumulate a literal run.
		runStart := i
		i++
		for i < len(data) && i-runStart < smazMaxRun {
			if _, n := longestCodebookMatch(data[i:]); n > 0 {
				break
			}
			i++
		}
		run := data[runStart:i]
		if len(run) == 1 {
			out = append(out, smazLiteralByte, run[0])
		} else {
			out = append(out, smazLiteralRun, byte(len(run)-1))
			out = append(out, run...)
		}
	}
	return out
}

// longestCodebookMatch returns the code and byte length of the longest
// codebook entry that is a prefix of data, or (0, 0) if none matches.
func longestCodebookMatch(data []byte) (int, int) {
	limit := maxCodeLen
	if limit > len(data) {
		limit = len(data)
	}
	for length := limit; length >= 1; length-- {
		candidate := string(data[:length])
		for code, entry := range codebook {
			if len(entry) == length && entry == candidate {
				return code, length
			}
		}
	}
	return 0, 0
}

func smazDecompress(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	i := 0
	for i < len(data) {
		b := data[i]
		switch b {
		case smazLiteralByte:
			if i+1 >= len(data) {
				return nil, errShortInput
			}
			out = append(out, data[i+1])
			i += 2
		case smazLiteralRun:
			if i+1 >= len(data) {
				return nil, errShortInput
			}
			n := int(data[i+1]) + 1
			if i+2+n > len(data) {
				return nil, errShortInput
			}
			out = append(out, data[i+2:i+2+n]...)
			i += 2 + n
		default:
			if int(b) >= len(codebook) {
				return nil, errBadCode
			}
			out = append(out, codebook[b]...)
			i++
		}
	}
	return out, nil
}
