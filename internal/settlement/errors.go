package settlement

import (
	"errors"
	"fmt"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
)

// Lookup errors wrap storage.ErrNotFound, so callers may test for either.
var (
	ErrEventNotFound        = fmt.Errorf("event %w", storage.ErrNotFound)
	ErrParticipantNotFound  = fmt.Errorf("participant %w", storage.ErrNotFound)
	ErrItemNotFound         = fmt.Errorf("item %w", storage.ErrNotFound)
	ErrContributionNotFound = fmt.Errorf("contribution %w", storage.ErrNotFound)

	// ErrSettlementNotFound is returned by a toggle when no transfer exists for
	// the debtor/creditor pair. The event settlement has to be computed first.
	ErrSettlementNotFound = fmt.Errorf("settlement %w", storage.ErrNotFound)

	// ErrInvalidArgument marks validation failures of caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// notFound rewrites a storage ErrNotFound into the given domain sentinel and
// passes every other error through.
func notFound(err error, sentinel error, id string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}
	return err
}
