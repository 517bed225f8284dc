package domain

// ExecutionOutcome is the result of one transaction submission attempt.
// Expected failure modes (RPC timeout, simulation rejection, blockhash
// expiry) are reported as Confirmed=false with Err set; executors never
// propagate them as Go errors. Exactly one of the two shapes is returned:
// {Confirmed:true, Signature} or {Confirmed:false, Err?}.
type ExecutionOutcome struct {
	Confirmed bool
	Signature string
	Err       string
}

// FailedOutcome builds a non-confirmed outcome with a reason.
func FailedOutcome(reason string) ExecutionOutcome {
	return ExecutionOutcome{Confirmed: false, Err: reason}
}

// ConfirmedOutcome builds a confirmed outcome for a signature.
func ConfirmedOutcome(signature string) ExecutionOutcome {
	return ExecutionOutcome{Confirmed: true, Signature: signature}
}
