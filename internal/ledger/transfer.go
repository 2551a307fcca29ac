package ledger

// Transfer moves amount from sender to receiver. It behaves as Withdraw on the
// sender followed by Deposit on the receiver, except that both legs are
// validated before either is applied. A failing withdraw leg is reported
// unchanged and the receiver is not touched.
func (s *State) Transfer(sender, receiver string, amount Amount) error {
	senderAfter, err := s.debit(sender, amount)
	if err != nil {
		return err
	}

	// The deposit leg sees the balance as it stands after the withdraw leg,
	// which matters when sender and receiver are the same account.
	base := s.balances[receiver]
	if receiver == sender {
		base = senderAfter
	}
	receiverAfter, err := s.credit(receiver, base, amount)
	if err != nil {
		return err
	}

	s.balances[sender] = senderAfter
	s.balances[receiver] = receiverAfter
	return nil
}
