package meta

import "sync/atomic"

type serviceInfo struct {
	name    string
	version string
}

//nolint:gochecknoglobals // set once at startup, read by logs, traces and alerts
var service atomic.Pointer[serviceInfo]

// SetServiceInfo records the name and version of the running service. Only
// the first call has an effect.
func SetServiceInfo(name, version string) {
	service.CompareAndSwap(nil, &serviceInfo{name: name, version: version})
}

// GetServiceName returns the name given to SetServiceInfo.
func GetServiceName() string {
	if s := service.Load(); s != nil {
		return s.name
	}
	return ""
}

// GetServiceVersion returns the version given to SetServiceInfo.
func GetServiceVersion() string {
	if s := service.Load(); s != nil {
		return s.version
	}
	return ""
}
