// Code generated by MockGen. DO NOT EDIT.
// Source: types.go

// Package source is a generated GoMock package.
package source

import (
	reflect "reflect"
	time "time"

	gomock "github.com/golang/mock/gomock"
)

// MockPoolMetrics is a mock of PoolMetrics interface.
type MockPoolMetrics struct {
	ctrl     *gomock.Controller
	recorder *MockPoolMetricsMockRecorder
}

// MockPoolMetricsMockRecorder is the mock recorder for MockPoolMetrics.
type MockPoolMetricsMockRecorder struct {
	mock *MockPoolMetrics
}

// NewMockPoolMetrics creates a new mock instance.
func NewMockPoolMetrics(ctrl *gomock.Controller) *MockPoolMetrics {
	mock := &MockPoolMetrics{ctrl: ctrl}
	mock.recorder = &MockPoolMetricsMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockPoolMetrics) EXPECT() *MockPoolMetricsMockRecorder {
	return m.recorder
}

// ObserveCooldown mocks base method.
func (m *MockPoolMetrics) ObserveCooldown(source string) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ObserveCooldown", source)
}

// ObserveCooldown indicates an expected call of ObserveCooldown.
func (mr *MockPoolMetricsMockRecorder) ObserveCooldown(source interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ObserveCooldown", reflect.TypeOf((*MockPoolMetrics)(nil).ObserveCooldown), source)
}

// ObserveExhausted mocks base method.
func (m *MockPoolMetrics) ObserveExhausted() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ObserveExhausted")
}

// ObserveExhausted indicates an expected call of ObserveExhausted.
func (mr *MockPoolMetricsMockRecorder) ObserveExhausted() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ObserveExhausted", reflect.TypeOf((*MockPoolMetrics)(nil).ObserveExhausted))
}

// ObserveRequest mocks base method.
func (m *MockPoolMetrics) ObserveRequest(source, operation string, err error, started time.Time) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "ObserveRequest", source, operation, err, started)
}

// ObserveRequest indicates an expected call of ObserveRequest.
func (mr *MockPoolMetricsMockRecorder) ObserveRequest(source, operation, err, started interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ObserveRequest", reflect.TypeOf((*MockPoolMetrics)(nil).ObserveRequest), source, operation, err, started)
}

// MockObserver is a mock of Observer interface.
type MockObserver struct {
	ctrl     *gomock.Controller
	recorder *MockObserverMockRecorder
}

// MockObserverMockRecorder is the mock recorder for MockObserver.
type MockObserverMockRecorder struct {
	mock *MockObserver
}

// NewMockObserver creates a new mock instance.
func NewMockObserver(ctrl *gomock.Controller) *MockObserver {
	mock := &MockObserver{ctrl: ctrl}
	mock.recorder = &MockObserverMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockObserver) EXPECT() *MockObserverMockRecorder {
	return m.recorder
}

// RecordAPICall mocks base method.
func (m *MockObserver) RecordAPICall(err error) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "RecordAPICall", err)
}

// RecordAPICall indicates an expected call of RecordAPICall.
func (mr *MockObserverMockRecorder) RecordAPICall(err interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RecordAPICall", reflect.TypeOf((*MockObserver)(nil).RecordAPICall), err)
}
