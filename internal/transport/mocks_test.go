// Code generated by MockGen. DO NOT EDIT.
// Source: types.go

// Package transport is a generated GoMock package.
package transport

import (
	context "context"
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
	balance "github.com/goodnatureofminers/keyinsight7000-backend/internal/balance"
	model "github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/model"
	orchestrator "github.com/goodnatureofminers/keyinsight7000-backend/internal/scan/orchestrator"
)

// MockScanService is a mock of ScanService interface.
type MockScanService struct {
	ctrl     *gomock.Controller
	recorder *MockScanServiceMockRecorder
}

// MockScanServiceMockRecorder is the mock recorder for MockScanService.
type MockScanServiceMockRecorder struct {
	mock *MockScanService
}

// NewMockScanService creates a new mock instance.
func NewMockScanService(ctrl *gomock.Controller) *MockScanService {
	mock := &MockScanService{ctrl: ctrl}
	mock.recorder = &MockScanServiceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockScanService) EXPECT() *MockScanServiceMockRecorder {
	return m.recorder
}

// Config mocks base method.
func (m *MockScanService) Config() orchestrator.Config {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Config")
	ret0, _ := ret[0].(orchestrator.Config)
	return ret0
}

// Config indicates an expected call of Config.
func (mr *MockScanServiceMockRecorder) Config() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Config", reflect.TypeOf((*MockScanService)(nil).Config))
}

// Job mocks base method.
func (m *MockScanService) Job(scanID string) (model.ScanJob, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Job", scanID)
	ret0, _ := ret[0].(model.ScanJob)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Job indicates an expected call of Job.
func (mr *MockScanServiceMockRecorder) Job(scanID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Job", reflect.TypeOf((*MockScanService)(nil).Job), scanID)
}

// List mocks base method.
func (m *MockScanService) List() []model.ScanProgress {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "List")
	ret0, _ := ret[0].([]model.ScanProgress)
	return ret0
}

// List indicates an expected call of List.
func (mr *MockScanServiceMockRecorder) List() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "List", reflect.TypeOf((*MockScanService)(nil).List))
}

// Progress mocks base method.
func (m *MockScanService) Progress(scanID string) (model.ScanProgress, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Progress", scanID)
	ret0, _ := ret[0].(model.ScanProgress)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Progress indicates an expected call of Progress.
func (mr *MockScanServiceMockRecorder) Progress(scanID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Progress", reflect.TypeOf((*MockScanService)(nil).Progress), scanID)
}

// Results mocks base method.
func (m *MockScanService) Results(scanID string) ([]*model.RecoveredKey, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Results", scanID)
	ret0, _ := ret[0].([]*model.RecoveredKey)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Results indicates an expected call of Results.
func (mr *MockScanServiceMockRecorder) Results(scanID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Results", reflect.TypeOf((*MockScanService)(nil).Results), scanID)
}

// StartScan mocks base method.
func (m *MockScanService) StartScan(start, end uint64, addressTypes []model.AddressType) (model.ScanJob, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StartScan", start, end, addressTypes)
	ret0, _ := ret[0].(model.ScanJob)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// StartScan indicates an expected call of StartScan.
func (mr *MockScanServiceMockRecorder) StartScan(start, end, addressTypes interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StartScan", reflect.TypeOf((*MockScanService)(nil).StartScan), start, end, addressTypes)
}

// StopScan mocks base method.
func (m *MockScanService) StopScan(ctx context.Context, scanID string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StopScan", ctx, scanID)
	ret0, _ := ret[0].(error)
	return ret0
}

// StopScan indicates an expected call of StopScan.
func (mr *MockScanServiceMockRecorder) StopScan(ctx, scanID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StopScan", reflect.TypeOf((*MockScanService)(nil).StopScan), ctx, scanID)
}

// UpdateConfig mocks base method.
func (m *MockScanService) UpdateConfig(blockWorkers, txWorkers int, maxRangeBlocks uint64) orchestrator.Config {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateConfig", blockWorkers, txWorkers, maxRangeBlocks)
	ret0, _ := ret[0].(orchestrator.Config)
	return ret0
}

// UpdateConfig indicates an expected call of UpdateConfig.
func (mr *MockScanServiceMockRecorder) UpdateConfig(blockWorkers, txWorkers, maxRangeBlocks interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateConfig", reflect.TypeOf((*MockScanService)(nil).UpdateConfig), blockWorkers, txWorkers, maxRangeBlocks)
}

// MockHeightSource is a mock of HeightSource interface.
type MockHeightSource struct {
	ctrl     *gomock.Controller
	recorder *MockHeightSourceMockRecorder
}

// MockHeightSourceMockRecorder is the mock recorder for MockHeightSource.
type MockHeightSourceMockRecorder struct {
	mock *MockHeightSource
}

// NewMockHeightSource creates a new mock instance.
func NewMockHeightSource(ctrl *gomock.Controller) *MockHeightSource {
	mock := &MockHeightSource{ctrl: ctrl}
	mock.recorder = &MockHeightSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockHeightSource) EXPECT() *MockHeightSourceMockRecorder {
	return m.recorder
}

// CurrentHeight mocks base method.
func (m *MockHeightSource) CurrentHeight(ctx context.Context) (uint64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CurrentHeight", ctx)
	ret0, _ := ret[0].(uint64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CurrentHeight indicates an expected call of CurrentHeight.
func (mr *MockHeightSourceMockRecorder) CurrentHeight(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CurrentHeight", reflect.TypeOf((*MockHeightSource)(nil).CurrentHeight), ctx)
}

// MockBalanceChecker is a mock of BalanceChecker interface.
type MockBalanceChecker struct {
	ctrl     *gomock.Controller
	recorder *MockBalanceCheckerMockRecorder
}

// MockBalanceCheckerMockRecorder is the mock recorder for MockBalanceChecker.
type MockBalanceCheckerMockRecorder struct {
	mock *MockBalanceChecker
}

// NewMockBalanceChecker creates a new mock instance.
func NewMockBalanceChecker(ctrl *gomock.Controller) *MockBalanceChecker {
	mock := &MockBalanceChecker{ctrl: ctrl}
	mock.recorder = &MockBalanceCheckerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBalanceChecker) EXPECT() *MockBalanceCheckerMockRecorder {
	return m.recorder
}

// Check mocks base method.
func (m *MockBalanceChecker) Check(ctx context.Context, address string) (balance.AddressBalance, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Check", ctx, address)
	ret0, _ := ret[0].(balance.AddressBalance)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Check indicates an expected call of Check.
func (mr *MockBalanceCheckerMockRecorder) Check(ctx, address interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Check", reflect.TypeOf((*MockBalanceChecker)(nil).Check), ctx, address)
}

// MockKeyReader is a mock of KeyReader interface.
type MockKeyReader struct {
	ctrl     *gomock.Controller
	recorder *MockKeyReaderMockRecorder
}

// MockKeyReaderMockRecorder is the mock recorder for MockKeyReader.
type MockKeyReaderMockRecorder struct {
	mock *MockKeyReader
}

// NewMockKeyReader creates a new mock instance.
func NewMockKeyReader(ctrl *gomock.Controller) *MockKeyReader {
	mock := &MockKeyReader{ctrl: ctrl}
	mock.recorder = &MockKeyReaderMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockKeyReader) EXPECT() *MockKeyReaderMockRecorder {
	return m.recorder
}

// RecoveredKeysByScan mocks base method.
func (m *MockKeyReader) RecoveredKeysByScan(ctx context.Context, scanID string) ([]model.RecoveredKey, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RecoveredKeysByScan", ctx, scanID)
	ret0, _ := ret[0].([]model.RecoveredKey)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RecoveredKeysByScan indicates an expected call of RecoveredKeysByScan.
func (mr *MockKeyReaderMockRecorder) RecoveredKeysByScan(ctx, scanID interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecoveredKeysByScan", reflect.TypeOf((*MockKeyReader)(nil).RecoveredKeysByScan), ctx, scanID)
}
