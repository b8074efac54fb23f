package mock

import (
	context "context"

	mock "github.com/stretchr/testify/mock"

	telemetry "github.com/onflow/node-dashboard/model/telemetry"
)

// Source is an autogenerated mock type for the Source type
type Source struct {
	mock.Mock
}

// ConsensusStatus provides a mock function with given fields: ctx
func (_m *Source) ConsensusStatus(ctx context.Context) (telemetry.ConsensusStatus, error) {
	ret := _m.Called(ctx)

	var r0 telemetry.ConsensusStatus
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (telemetry.ConsensusStatus, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) telemetry.ConsensusStatus); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(telemetry.ConsensusStatus)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Host provides a mock function with given fields:
func (_m *Source) Host() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// NodeInfo provides a mock function with given fields: ctx
func (_m *Source) NodeInfo(ctx context.Context) (telemetry.NodeInfo, error) {
	ret := _m.Called(ctx)

	var r0 telemetry.NodeInfo
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (telemetry.NodeInfo, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) telemetry.NodeInfo); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(telemetry.NodeInfo)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// PeerStats provides a mock function with given fields: ctx
func (_m *Source) PeerStats(ctx context.Context) (telemetry.PeerStats, error) {
	ret := _m.Called(ctx)

	var r0 telemetry.PeerStats
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (telemetry.PeerStats, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) telemetry.PeerStats); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(telemetry.PeerStats)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// PeerVersion provides a mock function with given fields: ctx
func (_m *Source) PeerVersion(ctx context.Context) (string, error) {
	ret := _m.Called(ctx)

	var r0 string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (string, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) string); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(string)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// TotalReceived provides a mock function with given fields: ctx
func (_m *Source) TotalReceived(ctx context.Context) (uint64, error) {
	ret := _m.Called(ctx)

	var r0 uint64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (uint64, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) uint64); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(uint64)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// TotalSent provides a mock function with given fields: ctx
func (_m *Source) TotalSent(ctx context.Context) (uint64, error) {
	ret := _m.Called(ctx)

	var r0 uint64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (uint64, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) uint64); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(uint64)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Uptime provides a mock function with given fields: ctx
func (_m *Source) Uptime(ctx context.Context) (uint64, error) {
	ret := _m.Called(ctx)

	var r0 uint64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (uint64, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) uint64); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(uint64)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type mockConstructorTestingTNewSource interface {
	mock.TestingT
	Cleanup(func())
}

// NewSource creates a new instance of Source. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewSource(t mockConstructorTestingTNewSource) *Source {
	mock := &Source{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
