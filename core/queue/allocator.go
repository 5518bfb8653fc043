package queue

import "github.com/pkg/errors"

// nextPosition returns the tail position of a lane.
func nextPosition(tx ReadTx, campusID string, lane Lane) (int, error) {
	max, err := tx.MaxPosition(campusID, lane)
	if err != nil {
		return 0, errors.Wrap(err, "getting max lane position")
	}
	return max + 1, nil
}

// renumberAfterRemoval closes the gap left at removedPos.
// It must run in the same transaction that vacated the position.
func renumberAfterRemoval(tx Tx, campusID string, lane Lane, removedPos int) error {
	return errors.Wrap(tx.ShiftPositions(campusID, lane, removedPos), "renumbering lane")
}
