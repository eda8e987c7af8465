package orchestrator

import (
	"context"
	"time"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/chain"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/rindex"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/source"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// SourcePool provides pooled access to blockchain data; Observed
	// attaches per-attempt accounting for one scan.
	SourcePool interface {
		Observed(obs source.Observer) chain.BlockchainSource
	}

	// Extractor yields signature records from a raw transaction.
	Extractor interface {
		Extract(tx *chain.Transaction, addressTypes []model.AddressType) ([]model.SignatureRecord, int, error)
	}

	// Recoverer resolves one collision pair into a recovered key.
	Recoverer interface {
		Recover(pair rindex.Collision) (*model.RecoveredKey, error)
	}

	// Store persists scan summaries and recovered keys. Persistence is
	// opaque to the orchestrator; failures are logged, never fatal.
	Store interface {
		SaveScan(ctx context.Context, job model.ScanJob, progress model.ScanProgress) error
		SaveRecoveredKeys(ctx context.Context, scanID string, keys []model.RecoveredKey) error
	}

	// Metrics records orchestrator-level observations.
	Metrics interface {
		ObserveScanStarted()
		ObserveScanFinished(status string, started time.Time)
		ObserveBlock(err error, started time.Time)
		ObserveSignature(addressType string)
		ObserveRecoveredKey(validationStatus string)
	}
)
