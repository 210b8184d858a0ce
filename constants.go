package edgewasm

// handleInvalid is the sentinel returned internally when a name->handle lookup
// fails before a status can be chosen by the caller.
const handleInvalid = -1

// HTTP version enum values, as marshalled across the ABI for version_get/version_set.
const (
	versionHTTP09 int32 = 0
	versionHTTP10 int32 = 1
	versionHTTP11 int32 = 2
	versionHTTP2  int32 = 3
	versionHTTP3  int32 = 4
)

func validHTTPVersion(v int32) bool {
	switch v {
	case versionHTTP09, versionHTTP10, versionHTTP11, versionHTTP2, versionHTTP3:
		return true
	default:
		return false
	}
}
