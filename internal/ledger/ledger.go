package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Namespace identifies one policy number counter.
type Namespace string

const (
	Main Namespace = "main"
	KBL  Namespace = "kbl"
	NSIA Namespace = "nsia"
)

type namespaceSpec struct {
	file  string
	width int
	floor int
}

var specs = map[Namespace]namespaceSpec{
	Main: {file: "policy_number.json", width: 6, floor: 0},
	KBL:  {file: "kbl_policy_number.json", width: 5, floor: 0},
	// NSIA numbers start above 50,000 to keep the space disjoint from KBL.
	NSIA: {file: "nsia_policy_number.json", width: 5, floor: 50_000},
}

type counterFile struct {
	LastPolicyNumber int       `json:"lastPolicyNumber"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Ledger hands out monotonically increasing policy numbers, one flat JSON
// file per namespace. Concurrent callers within the process are serialized by
// a per-namespace mutex; there is no cross-process locking.
type Ledger struct {
	dir  string
	log  *slog.Logger
	lock map[Namespace]*sync.Mutex
}

func New(dir string, logger *slog.Logger) *Ledger {
	locks := make(map[Namespace]*sync.Mutex, len(specs))
	for ns := range specs {
		locks[ns] = &sync.Mutex{}
	}
	return &Ledger{dir: dir, log: logger, lock: locks}
}

func (l *Ledger) path(spec namespaceSpec) string {
	return filepath.Join(l.dir, spec.file)
}

func (l *Ledger) read(spec namespaceSpec) (int, error) {
	data, err := os.ReadFile(l.path(spec))
	if err != nil {
		if os.IsNotExist(err) {
			return spec.floor, nil
		}
		return 0, err
	}
	var cf counterFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return 0, err
	}
	if cf.LastPolicyNumber < spec.floor {
		return spec.floor, nil
	}
	return cf.LastPolicyNumber, nil
}

func (l *Ledger) write(spec namespaceSpec, n int) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(counterFile{LastPolicyNumber: n, UpdatedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(l.path(spec), data, 0o644)
}

// Next increments the namespace's counter and returns the new number
// zero-padded to the namespace width. When the counter file cannot be read
// or written, a random in-range number is returned instead so document
// generation never blocks on the ledger; the gap in continuity is logged.
func (l *Ledger) Next(ns Namespace) string {
	spec := specs[ns]
	l.lock[ns].Lock()
	defer l.lock[ns].Unlock()

	current, err := l.read(spec)
	if err == nil {
		next := current + 1
		if err = l.write(spec, next); err == nil {
			return pad(next, spec.width)
		}
	}

	fallback := randomInRange(spec)
	l.log.Error("policy counter unavailable, using random number",
		"namespace", string(ns), "error", err, "fallback", fallback)
	return fallback
}

// Current returns the last issued number without consuming anything; the
// namespace floor when nothing has been issued yet.
func (l *Ledger) Current(ns Namespace) (string, error) {
	spec := specs[ns]
	l.lock[ns].Lock()
	defer l.lock[ns].Unlock()

	current, err := l.read(spec)
	if err != nil {
		return "", fmt.Errorf("read %s counter: %w", ns, err)
	}
	return pad(current, spec.width), nil
}

// Reset positions the namespace so that the next issued number is n.
func (l *Ledger) Reset(ns Namespace, n int) error {
	if n < 1 {
		return fmt.Errorf("invalid policy number %d", n)
	}
	spec := specs[ns]
	l.lock[ns].Lock()
	defer l.lock[ns].Unlock()

	if err := l.write(spec, n-1); err != nil {
		return fmt.Errorf("reset %s counter: %w", ns, err)
	}
	return nil
}

func pad(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

func randomInRange(spec namespaceSpec) string {
	low := spec.floor
	if low == 0 {
		// e.g. width 6 -> [100000, 999999]
		for i := 1; i < spec.width; i++ {
			low = low*10 + 9
		}
		low++
	}
	high := 1
	for i := 0; i < spec.width; i++ {
		high *= 10
	}
	return pad(low+rand.Intn(high-low), spec.width)
}
