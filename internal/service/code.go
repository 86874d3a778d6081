package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// CodeAlphabet leaves out 0, O and I.
	CodeAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	CodeLength   = 8

	// FallbackIDPrefix marks ids built without the uuid generator.
	FallbackIDPrefix = "res_"
)

type CodeGenerator interface {
	NextCode() (string, error)
	NextID() string
}

// RandomCodeGenerator draws every code independently; there is no counter,
// so uniqueness is probabilistic.
type RandomCodeGenerator struct {
	newUUID func() (uuid.UUID, error)
}

func NewRandomCodeGenerator() *RandomCodeGenerator {
	return &RandomCodeGenerator{newUUID: uuid.NewRandom}
}

func (g *RandomCodeGenerator) NextCode() (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate reservation code: %w", err)
		}
		code[i] = CodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

func (g *RandomCodeGenerator) NextID() string {
	newUUID := g.newUUID
	if newUUID == nil {
		newUUID = uuid.NewRandom
	}
	id, err := newUUID()
	if err != nil {
		return fallbackID(time.Now())
	}
	return id.String()
}

func fallbackID(now time.Time) string {
	const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = base36[mrand.IntN(len(base36))]
	}
	return FallbackIDPrefix + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}
