package assembler

import (
	"context"
	"strings"
	"time"

	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

// Options parameterize one assembly run. GeneratedAt is explicit rather than
// read from the clock so identical inputs produce byte-identical output.
type Options struct {
	GeneratedAt time.Time
	TenantID    string
	POAID       string
}

// Artifact is the rendered instrument.
type Artifact struct {
	Bytes      []byte
	Filename   string
	ObjectPath string
	PageCount  int
}

// Assembler renders power of attorney instruments from validated input. The
// render is CPU-bound; the configured timeout turns a wedged render into a
// retryable failure instead of blocking the caller indefinitely.
type Assembler struct {
	timeout time.Duration
}

func New(cfg config.AssemblyConfig) *Assembler {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Assembler{timeout: timeout}
}

// Assemble produces the instrument for a fully validated POA. Gating on full
// validation belongs to the caller; the invariants the layout depends on most
// are re-checked here so a bad call fails loudly instead of emitting a
// malformed instrument.
func (a *Assembler) Assemble(ctx context.Context, n *validation.NormalizedPOA, opts Options) (*Artifact, error) {
	if err := a.check(n, opts); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeAssemblyRetry, err, "document assembly timed out")
	}

	type result struct {
		bytes []byte
		pages int
		err   error
	}
	done := make(chan result, 1)
	go func() {
		bytes, pages, err := render(n, opts.GeneratedAt)
		done <- result{bytes: bytes, pages: pages, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, pkgerrors.Wrap(pkgerrors.CodeAssemblyRetry, ctx.Err(), "document assembly timed out")
	case res := <-done:
		if res.err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAssembly, res.err, "rendering instrument")
		}
		filename := Filename(n.Family, n.State, n.Principal.FullName, opts.GeneratedAt, disambiguator(opts.POAID))
		return &Artifact{
			Bytes:      res.bytes,
			Filename:   filename,
			ObjectPath: ObjectPath(opts.TenantID, opts.POAID, filename),
			PageCount:  res.pages,
		}, nil
	}
}

// check re-verifies the invariants the layout depends on.
func (a *Assembler) check(n *validation.NormalizedPOA, opts Options) error {
	if n == nil {
		return pkgerrors.New(pkgerrors.CodeAssembly, "assembly requires a validated instrument")
	}
	if opts.GeneratedAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeAssembly, "assembly requires an explicit generation time")
	}
	if strings.TrimSpace(n.Principal.FullName) == "" {
		return pkgerrors.New(pkgerrors.CodeAssembly, "assembly requires a principal")
	}
	if len(n.Agents) == 0 || n.PrimaryAgent() == nil {
		return pkgerrors.New(pkgerrors.CodeAssembly, "assembly requires at least a primary agent")
	}
	switch n.Type {
	case enums.POATypeLimited:
		if n.ExpirationDate == nil {
			return pkgerrors.New(pkgerrors.CodeAssembly, "limited powers require an expiration date")
		}
		if n.SpecificPurpose == "" {
			return pkgerrors.New(pkgerrors.CodeAssembly, "limited powers require a specific purpose")
		}
	case enums.POATypeSpringing:
		if n.SpringingCondition == "" {
			return pkgerrors.New(pkgerrors.CodeAssembly, "springing powers require a triggering condition")
		}
	case enums.POATypeHealthcare:
		if n.Directives == nil || len(n.Directives.Choices) == 0 {
			return pkgerrors.New(pkgerrors.CodeAssembly, "healthcare powers require directives")
		}
	}
	return nil
}

func disambiguator(poaID string) string {
	id := strings.ReplaceAll(poaID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}
