package railway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalid marks a violated field invariant (missing or non-positive value, bad enum).
	ErrInvalid = errors.New("railway: invalid aggregate")
	// ErrDuplicateSequence marks two owned rows sharing a sequence order under one root.
	ErrDuplicateSequence = errors.New("railway: duplicate sequence order")
)

type problems struct {
	entity string
	msgs   []string
}

func newProblems(entity string) *problems { return &problems{entity: entity} }

func (p *problems) addf(format string, args ...any) {
	p.msgs = append(p.msgs, fmt.Sprintf(format, args...))
}

func (p *problems) require(ok bool, format string, args ...any) {
	if !ok {
		p.addf(format, args...)
	}
}

func (p *problems) err() error {
	if len(p.msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalid, p.entity, strings.Join(p.msgs, "; "))
}
