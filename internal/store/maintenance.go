package store

import "fmt"

// ClearReceived drops every pending and executable entry of every chain, and
// for each listed chain the global watermark and the watermarks of the given
// validators.
func (t *Tx) ClearReceived(chains, validators []string) error {
	for _, stmt := range []string{
		`DELETE FROM pending_attesters`,
		`DELETE FROM pending_groups`,
		`DELETE FROM executable_messages`,
	} {
		if _, err := t.exec(stmt); err != nil {
			return fmt.Errorf("clear received: %w", err)
		}
	}

	for _, chain := range chains {
		for _, validator := range validators {
			if _, err := t.exec(`
				DELETE FROM final_received_ids WHERE chain = ? AND validator = ?
			`, chain, validator); err != nil {
				return fmt.Errorf("clear received: watermark: %w", err)
			}
		}
		if _, err := t.exec(`DELETE FROM latest_message_ids WHERE chain = ?`, chain); err != nil {
			return fmt.Errorf("clear received: latest id: %w", err)
		}
	}
	return nil
}

// ClearSent drops the outbound log and counter of each listed chain.
func (t *Tx) ClearSent(chains []string) error {
	for _, chain := range chains {
		if _, err := t.exec(`DELETE FROM sent_messages WHERE chain = ?`, chain); err != nil {
			return fmt.Errorf("clear sent: %w", err)
		}
		if _, err := t.exec(`DELETE FROM sent_counters WHERE chain = ?`, chain); err != nil {
			return fmt.Errorf("clear sent: counter: %w", err)
		}
	}
	return nil
}
