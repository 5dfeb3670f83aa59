package storage

import (
	"fmt"
)

// Pending items carry gap-based integer order indices. Appends advance by
// orderGap; a move takes the midpoint between its new neighbours. When two
// neighbours sit on adjacent integers the whole pending set is renumbered
// with fresh gaps and the move lands on the renumbered positions.
const orderGap = 1024

// Move repositions a pending item to the given 0-based slot in the pending
// list. Out-of-range positions clamp to the list ends.
func (s *Store) Move(id, pos int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.Query(`SELECT id, order_index FROM todos WHERE status = ? ORDER BY order_index ASC;`, StatusPending)
	if err != nil {
		return err
	}
	type slot struct {
		id    int
		order int64
	}
	var pending []slot
	for rows.Next() {
		var sl slot
		if err := rows.Scan(&sl.id, &sl.order); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, sl)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	cur := -1
	for i, sl := range pending {
		if sl.id == id {
			cur = i
			break
		}
	}
	if cur == -1 {
		return ErrNotFound
	}

	rest := append(append([]slot{}, pending[:cur]...), pending[cur+1:]...)
	if pos < 0 {
		pos = 0
	}
	if pos > len(rest) {
		pos = len(rest)
	}
	if pos == cur {
		return tx.Commit()
	}

	var lower, upper int64
	hasLower, hasUpper := pos > 0, pos < len(rest)
	if hasLower {
		lower = rest[pos-1].order
	}
	if hasUpper {
		upper = rest[pos].order
	}

	if mid, ok := rankBetween(lower, upper, hasLower, hasUpper); ok {
		if _, err := tx.Exec(`UPDATE todos SET order_index = ? WHERE id = ?;`, mid, id); err != nil {
			return err
		}
		return tx.Commit()
	}

	// Gap exhausted: renumber the pending set with the item in its new slot.
	order := append(append(append([]slot{}, rest[:pos]...), slot{id: id}), rest[pos:]...)
	stmt, err := tx.Prepare(`UPDATE todos SET order_index = ? WHERE id = ?;`)
	if err != nil {
		return fmt.Errorf("prepare renumber: %w", err)
	}
	defer stmt.Close()
	for i, sl := range order {
		if _, err := stmt.Exec(int64(i+1)*orderGap, sl.id); err != nil {
			return fmt.Errorf("renumber id %d: %w", sl.id, err)
		}
	}
	return tx.Commit()
}

// rankBetween picks an order index strictly between the neighbours. Missing
// neighbours extend past the list end by a full gap. ok is false when no
// integer fits between lower and upper.
func rankBetween(lower, upper int64, hasLower, hasUpper bool) (int64, bool) {
	switch {
	case !hasLower && !hasUpper:
		return orderGap, true
	case !hasLower:
		lower = upper - 2*orderGap
	case !hasUpper:
		upper = lower + 2*orderGap
	}
	mid := lower + (upper-lower)/2
	if mid <= lower || mid >= upper {
		return 0, false
	}
	return mid, true
}
