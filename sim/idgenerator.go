package sim

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// An IDGenerator generates the IDs of events and tasks.
type IDGenerator interface {
	Generate() string
}

var (
	idGenMu     sync.Mutex
	idGen       IDGenerator
	idGenLocked bool
)

// UseSequentialIDGenerator makes IDs decimal numbers in generation order, so
// that runs are reproducible. This is the default.
func UseSequentialIDGenerator() {
	setIDGenerator(&sequentialIDGenerator{})
}

// UseUniqueIDGenerator makes IDs globally unique, so that the traces of
// separate runs can be merged. The IDs differ from run to run.
func UseUniqueIDGenerator() {
	setIDGenerator(uniqueIDGenerator{})
}

func setIDGenerator(g IDGenerator) {
	idGenMu.Lock()
	defer idGenMu.Unlock()

	if idGenLocked {
		log.Panic("the id generator cannot change after it is used")
	}

	idGen = g
	idGenLocked = true
}

// GetIDGenerator returns the ID generator of the process. The generator
// cannot change once it has been returned.
func GetIDGenerator() IDGenerator {
	idGenMu.Lock()
	defer idGenMu.Unlock()

	if idGen == nil {
		idGen = &sequentialIDGenerator{}
	}

	idGenLocked = true

	return idGen
}

type sequentialIDGenerator struct {
	last atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

type uniqueIDGenerator struct{}

func (uniqueIDGenerator) Generate() string {
	return xid.New().String()
}
