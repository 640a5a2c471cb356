// Package eventsink implements the Event sink (§6, §4.7): BalanceChange,
// NewTransaction, ConfirmationStateChange and TransferProgress events,
// delivered over an in-process channel feed and, optionally, republished
// to Kafka — the teacher already ships exactly this "publish domain
// events onto a broker" shape for its own chain events
// (datasync/chaindatafetcher/kafka: KafkaConfig + repository.Publish).
package eventsink

import "github.com/iotaledger/wallet.go/common"

// BalanceChangeKind distinguishes a received vs spent delta (§4.7).
type BalanceChangeKind int

const (
	BalanceReceived BalanceChangeKind = iota
	BalanceSpent
)

// BalanceChange reports a per-output (or, for the final reconciling
// event, per-address unexplained) balance delta.
type BalanceChange struct {
	AccountIndex uint32
	Address      common.AddressRef
	Kind         BalanceChangeKind
	Amount       uint64
	// MessageID is the zero value for the final reconciling event that
	// carries any delta pruning made unattributable (§4.7).
	MessageID    common.MessageID
	HasMessageID bool
}

// NewTransaction reports a newly observed message id.
type NewTransaction struct {
	AccountIndex uint32
	MessageID    common.MessageID
}

// ConfirmationState mirrors account.Confirmation without importing the
// account package, keeping eventsink a leaf the Syncer depends on rather
// than vice versa.
type ConfirmationState int

const (
	ConfirmationUnknown ConfirmationState = iota
	ConfirmationConfirmed
	ConfirmationConflicting
)

// ConfirmationStateChange reports a message whose confirmed field changed.
type ConfirmationStateChange struct {
	AccountIndex uint32
	MessageID    common.MessageID
	Confirmed    ConfirmationState
}

// TransferProgressStage enumerates the Transfer Builder's phases (§4.5,
// §6) for UI/observability consumers.
type TransferProgressStage int

const (
	StageSelectingInputs TransferProgressStage = iota
	StageGeneratingRemainderDepositAddress
	StagePreparedTransaction
	StageSigningTransaction
	StagePerformingPoW
	StageBroadcasting
)

// TransferProgress reports a Transfer Builder phase transition.
type TransferProgress struct {
	AccountIndex uint32
	Stage        TransferProgressStage
}

// Event is the union of every event kind this sink delivers.
type Event struct {
	BalanceChange           *BalanceChange
	NewTransaction          *NewTransaction
	ConfirmationStateChange *ConfirmationStateChange
	TransferProgress        *TransferProgress
}
