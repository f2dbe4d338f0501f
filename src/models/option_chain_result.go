package models

// OptionChainResult is either a table or an explicit "no result". Reason holds
// the fetch or schema error that produced the empty outcome.
type OptionChainResult struct {
	Table  OptionChainTable
	Reason error
	found  bool
}

func NewOptionChainResult(table OptionChainTable) OptionChainResult {
	return OptionChainResult{Table: table, found: true}
}

func NewEmptyOptionChainResult(reason error) OptionChainResult {
	return OptionChainResult{Reason: reason}
}

func (r OptionChainResult) Found() bool {
	return r.found
}
