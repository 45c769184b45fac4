package damm

import (
	"fmt"
	"strconv"
	"sync"
)

// DefaultWidth is the zero-padded sequence width used by legacy archives.
const DefaultWidth = 4

// Category describes one identifier space: a letter prefix and a numeric
// base offset. Distinct categories never share a prefix.
type Category struct {
	Prefix string
	Offset int
	Width  int
}

func (c Category) width() int {
	if c.Width <= 0 {
		return DefaultWidth
	}
	return c.Width
}

// Format renders the identifier for absolute number n.
func (c Category) Format(n int) (string, error) {
	digits, err := Encode(n, c.width())
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Prefix, err)
	}
	return c.Prefix + digits, nil
}

// Identifier is a parsed reference code.
type Identifier struct {
	Prefix string
	Number int
	Width  int
	Check  int
}

func (id Identifier) String() string {
	return fmt.Sprintf("%s%0*d%d", id.Prefix, id.Width, id.Number, id.Check)
}

// Parse splits an identifier into prefix, number and check digit and
// verifies the check digit.
func Parse(s string) (Identifier, error) {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	prefix, digits := s[:i], s[i:]
	if len(digits) < 2 {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	if !Valid(digits) {
		return Identifier{}, fmt.Errorf("%w: %q fails check digit", ErrInvalidIdentifier, s)
	}
	n, err := strconv.Atoi(digits[:len(digits)-1])
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return Identifier{
		Prefix: prefix,
		Number: n,
		Width:  len(digits) - 1,
		Check:  int(digits[len(digits)-1] - '0'),
	}, nil
}

// Validate returns nil when s is a well-formed identifier with a correct
// check digit.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// Allocator hands out identifier sequences for one conversion run.
// Each category continues where its previous worksheet stopped, so two
// worksheets of the same kind in one run never issue the same code.
type Allocator struct {
	mu   sync.Mutex
	used map[string]int
}

// NewAllocator returns an allocator with every category at zero.
func NewAllocator() *Allocator {
	return &Allocator{used: make(map[string]int)}
}

// Sequence opens the running counter for one worksheet.
func (a *Allocator) Sequence(c Category) *Sequence {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Sequence{alloc: a, cat: c, base: c.Offset + a.used[c.Prefix]}
}

// Sequence is the per-worksheet running count. It must not be shared
// between worksheets.
type Sequence struct {
	alloc *Allocator
	cat   Category
	base  int
	count int
}

// Next advances the count and returns the new identifier.
func (s *Sequence) Next() (string, error) {
	id, err := s.cat.Format(s.base + s.count + 1)
	if err != nil {
		return "", err
	}
	s.count++
	s.alloc.mu.Lock()
	s.alloc.used[s.cat.Prefix]++
	s.alloc.mu.Unlock()
	return id, nil
}

// Count returns how many identifiers this worksheet has issued.
func (s *Sequence) Count() int { return s.count }
