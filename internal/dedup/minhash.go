// Package dedup removes near-duplicate chunks using MinHash signatures over
// word shingles and LSH banding for candidate generation.
package dedup

import (
	"crypto/sha1"
	"encoding/binary"
	"math"
	"math/bits"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	mersennePrime = (1 << 61) - 1
	maxHash       = math.MaxUint32
)

// Config configures the near-duplicate remover.
type Config struct {
	ShingleSize int
	Threshold   float64
	NumPerm     int
	Seed        uint64
}

// DefaultConfig returns 5-word shingles, a 0.9 threshold and 128 permutations.
func DefaultConfig() Config {
	return Config{ShingleSize: 5, Threshold: 0.9, NumPerm: 128, Seed: 42}
}

// Validate checks the config for usable values.
func (c Config) Validate() error {
	if c.ShingleSize <= 0 {
		return eris.Errorf("dedup: shingle size must be positive, got %d", c.ShingleSize)
	}
	if c.NumPerm <= 0 {
		return eris.Errorf("dedup: num_perm must be positive, got %d", c.NumPerm)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return eris.Errorf("dedup: threshold must be in (0, 1], got %v", c.Threshold)
	}
	return nil
}

var nonWordRE = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Hasher computes MinHash signatures.
type Hasher struct {
	numPerm int
	size    int
	a, b    []uint64
}

// NewHasher draws numPerm permutations from a PCG source seeded by seed.
func NewHasher(shingleSize, numPerm int, seed uint64) *Hasher {
	r := rand.New(rand.NewPCG(seed, seed))
	h := &Hasher{numPerm: numPerm, size: shingleSize, a: make([]uint64, numPerm), b: make([]uint64, numPerm)}
	for i := range numPerm {
		h.a[i] = 1 + r.Uint64N(mersennePrime-1)
		h.b[i] = r.Uint64N(mersennePrime)
	}
	return h
}

// Shingles returns the distinct lower-cased word n-grams of text. A text
// shorter than n words forms a single shingle.
func Shingles(text string, n int) map[string]struct{} {
	var tokens []string
	for _, t := range nonWordRE.Split(strings.ToLower(text), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	out := make(map[string]struct{})
	if len(tokens) == 0 {
		return out
	}
	if len(tokens) < n {
		out[strings.Join(tokens, " ")] = struct{}{}
		return out
	}
	for i := 0; i+n <= len(tokens); i++ {
		out[strings.Join(tokens[i:i+n], " ")] = struct{}{}
	}
	return out
}

func hash32(s string) uint64 {
	sum := sha1.Sum([]byte(s))
	return uint64(binary.LittleEndian.Uint32(sum[:4]))
}

// Signature returns the MinHash signature of text. Text without tokens
// gets an all-max signature.
func (h *Hasher) Signature(text string) []uint32 {
	sig := make([]uint32, h.numPerm)
	for i := range sig {
		sig[i] = maxHash
	}
	for sh := range Shingles(text, h.size) {
		hv := hash32(sh)
		for i := range h.numPerm {
			hi, lo := bits.Mul64(h.a[i], hv)
			p := (bits.Rem64(hi, lo, mersennePrime) + h.b[i]) % mersennePrime
			if v := uint32(p & maxHash); v < sig[i] {
				sig[i] = v
			}
		}
	}
	return sig
}

// Similarity estimates the Jaccard similarity of two signatures as the
// fraction of equal positions.
func Similarity(a, b []uint32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	eq := 0
	for i := range a {
		if a[i] == b[i] {
			eq++
		}
	}
	return float64(eq) / float64(len(a))
}

// Bands returns the LSH band count and rows per band for a threshold. With
// more bands than the number of positions two signatures may differ in while
// still meeting the threshold, any such pair agrees on at least one band.
func Bands(threshold float64, numPerm int) (bands, rows int) {
	budget := int(math.Floor((1-threshold)*float64(numPerm) + 1e-9))
	bands = min(budget+1, numPerm)
	rows = numPerm / bands
	return bands, rows
}
