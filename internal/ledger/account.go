package ledger

// Deposit adds amount to account, creating the account on first use.
func (s *State) Deposit(account string, amount Amount) error {
	next, err := s.credit(account, s.balances[account], amount)
	if err != nil {
		return err
	}
	s.balances[account] = next
	return nil
}

// Withdraw takes amount out of an existing account.
func (s *State) Withdraw(account string, amount Amount) error {
	next, err := s.debit(account, amount)
	if err != nil {
		return err
	}
	s.balances[account] = next
	return nil
}

// debit validates a withdrawal and returns the resulting balance without applying it.
func (s *State) debit(account string, amount Amount) (Amount, error) {
	if err := validAmount(amount); err != nil {
		return Amount{}, err
	}
	if err := validAccount(account); err != nil {
		return Amount{}, err
	}
	return s.requireFunds(account, amount)
}

// credit validates adding amount on top of current and returns the result.
func (s *State) credit(account string, current, amount Amount) (Amount, error) {
	if err := validAmount(amount); err != nil {
		return Amount{}, err
	}
	if err := validAccount(account); err != nil {
		return Amount{}, err
	}
	next := current.Add(amount)
	if err := s.checkCeiling(next); err != nil {
		return Amount{}, err
	}
	return next, nil
}
