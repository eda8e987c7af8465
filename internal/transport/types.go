// Package transport exposes the HTTP API.
package transport

import (
	"context"

	"github.com/goodnatureofminers/keyinsight7000-backend/internal/balance"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
	"github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/orchestrator"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// ScanService is the scan lifecycle surface the API exposes.
	ScanService interface {
		StartScan(start, end uint64, addressTypes []model.AddressType) (model.ScanJob, error)
		Progress(scanID string) (model.ScanProgress, error)
		Results(scanID string) ([]*model.RecoveredKey, error)
		StopScan(ctx context.Context, scanID string) error
		Job(scanID string) (model.ScanJob, error)
		List() []model.ScanProgress
		Config() orchestrator.Config
		UpdateConfig(blockWorkers, txWorkers int, maxRangeBlocks uint64) orchestrator.Config
	}

	// HeightSource reports the current chain tip.
	HeightSource interface {
		CurrentHeight(ctx context.Context) (uint64, error)
	}

	// BalanceChecker looks up address balances.
	BalanceChecker interface {
		Check(ctx context.Context, address string) (balance.AddressBalance, error)
	}

	// KeyReader serves recovered keys persisted by earlier runs.
	KeyReader interface {
		RecoveredKeysByScan(ctx context.Context, scanID string) ([]model.RecoveredKey, error)
	}
)
