package nodesource

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/onflow/node-dashboard/model/telemetry"
)

// consensusStatusJSON is the JSON document returned by GetConsensusStatus.
// Statistics the node has not computed yet are null.
type consensusStatusJSON struct {
	GenesisBlock string `json:"genesisBlock"`

	BestBlock               *string    `json:"bestBlock"`
	BestBlockHeight         uint64     `json:"bestBlockHeight"`
	BlockLastArrivedTime    *time.Time `json:"blockLastArrivedTime"`
	BlockArrivePeriodEMA    *float64   `json:"blockArrivePeriodEMA"`
	BlockArrivePeriodEMSD   *float64   `json:"blockArrivePeriodEMSD"`
	BlockArriveLatencyEMA   *float64   `json:"blockArriveLatencyEMA"`
	BlockArriveLatencyEMSD  *float64   `json:"blockArriveLatencyEMSD"`
	BlockReceivePeriodEMA   *float64   `json:"blockReceivePeriodEMA"`
	BlockReceivePeriodEMSD  *float64   `json:"blockReceivePeriodEMSD"`
	BlockReceiveLatencyEMA  *float64   `json:"blockReceiveLatencyEMA"`
	BlockReceiveLatencyEMSD *float64   `json:"blockReceiveLatencyEMSD"`

	LastFinalizedBlock       string     `json:"lastFinalizedBlock"`
	LastFinalizedBlockHeight uint64     `json:"lastFinalizedBlockHeight"`
	LastFinalizedTime        *time.Time `json:"lastFinalizedTime"`
	FinalizationPeriodEMA    *float64   `json:"finalizationPeriodEMA"`
	FinalizationPeriodEMSD   *float64   `json:"finalizationPeriodEMSD"`

	TransactionsPerBlockEMA  *float64 `json:"transactionsPerBlockEMA"`
	TransactionsPerBlockEMSD *float64 `json:"transactionsPerBlockEMSD"`
}

// decodeConsensusStatus parses the consensus status document. A document without
// a best block is rejected, as the node always knows at least the genesis block.
func decodeConsensusStatus(data string) (telemetry.ConsensusStatus, error) {
	var doc consensusStatusJSON
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return telemetry.ConsensusStatus{}, fmt.Errorf("could not decode consensus status: %w", err)
	}
	if doc.BestBlock == nil || *doc.BestBlock == "" {
		return telemetry.ConsensusStatus{}, fmt.Errorf("consensus status is missing the best block")
	}

	return telemetry.ConsensusStatus{
		GenesisBlock:             doc.GenesisBlock,
		BestBlock:                *doc.BestBlock,
		BestBlockHeight:          doc.BestBlockHeight,
		BestArrivedTime:          doc.BlockLastArrivedTime,
		BlockArrivePeriodEMA:     doc.BlockArrivePeriodEMA,
		BlockArrivePeriodEMSD:    doc.BlockArrivePeriodEMSD,
		BlockArriveLatencyEMA:    doc.BlockArriveLatencyEMA,
		BlockArriveLatencyEMSD:   doc.BlockArriveLatencyEMSD,
		BlockReceivePeriodEMA:    doc.BlockReceivePeriodEMA,
		BlockReceivePeriodEMSD:   doc.BlockReceivePeriodEMSD,
		BlockReceiveLatencyEMA:   doc.BlockReceiveLatencyEMA,
		BlockReceiveLatencyEMSD:  doc.BlockReceiveLatencyEMSD,
		FinalizedBlock:           doc.LastFinalizedBlock,
		FinalizedBlockHeight:     doc.LastFinalizedBlockHeight,
		FinalizedTime:            doc.LastFinalizedTime,
		FinalizationPeriodEMA:    doc.FinalizationPeriodEMA,
		FinalizationPeriodEMSD:   doc.FinalizationPeriodEMSD,
		TransactionsPerBlockEMA:  doc.TransactionsPerBlockEMA,
		TransactionsPerBlockEMSD: doc.TransactionsPerBlockEMSD,
	}, nil
}
