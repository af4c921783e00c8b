package session

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// wordlist is the fixed list session IDs are drawn from: three entries
// joined by hyphens, e.g. "violet-harbor-falcon".
var wordlist = []string{
	"amber", "anchor", "arrow", "ash", "aspen", "atlas", "autumn", "azure",
	"basil", "beacon", "birch", "blaze", "bloom", "breeze", "bridge", "brook",
	"canyon", "cedar", "cinder", "cliff", "clover", "coast", "comet", "copper",
	"coral", "crane", "crater", "crescent", "crimson", "crow", "current",
	"dawn", "delta", "desert", "dove", "dune", "dusk", "eagle", "echo",
	"ember", "falcon", "fern", "field", "flare", "flint", "forest", "fox",
	"frost", "garnet", "glacier", "glen", "granite", "grove", "gull",
	"harbor", "harvest", "hawk", "hazel", "heron", "hollow", "horizon",
	"indigo", "inlet", "ivory", "jade", "juniper", "kestrel", "lagoon",
	"lantern", "lark", "laurel", "ledge", "lichen", "lily", "lotus", "lynx",
	"maple", "marsh", "meadow", "mesa", "mist", "moss", "nectar", "nimbus",
	"oasis", "obsidian", "ocelot", "olive", "onyx", "opal", "orchid", "otter",
	"owl", "pearl", "pebble", "phoenix", "pine", "plateau", "plover", "plum",
	"quail", "quartz", "quill", "rapid", "raven", "reed", "reef", "ridge",
	"river", "robin", "rowan", "sable", "saffron", "sage", "sand", "shale",
	"shore", "slate", "sparrow", "spruce", "stone", "summit", "sunset",
	"swan", "tern", "thistle", "thrush", "tide", "timber", "topaz", "trail",
	"tundra", "valley", "vale", "verdant", "violet", "vista", "walnut",
	"warbler", "wave", "willow", "wisp", "wren", "zenith", "zephyr",
}

// NewID returns a fresh three-word session id using cryptographically
// random word selection, e.g. "violet-harbor-falcon".
func NewID() (string, error) {
	words := make([]string, 3)
	for i := range words {
		w, err := randomWord()
		if err != nil {
			return "", fmt.Errorf("session: generate id: %w", err)
		}
		words[i] = w
	}
	return strings.Join(words, "-"), nil
}

func randomWord() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(wordlist))))
	if err != nil {
		return "", err
	}
	return wordlist[n.Int64()], nil
}
